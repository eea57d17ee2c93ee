package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_PreservesHijacker(t *testing.T) {
	var hijackable bool
	srv := httptest.NewServer(Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hijackable = w.(http.Hijacker)
		w.WriteHeader(http.StatusNoContent)
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if !hijackable {
		t.Error("wrapped writer must implement http.Hijacker for WebSocket upgrades")
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}
