package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cryptoledger/ledger-engine/internal/api"
	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/ledger"
	"github.com/cryptoledger/ledger-engine/internal/model"
	"github.com/cryptoledger/ledger-engine/internal/store"
)

// newStreamEnv serves the full production router with the hub wired as a
// ledger observer.
func newStreamEnv(t *testing.T) (*api.WSHub, *httptest.Server) {
	t.Helper()
	hub := api.NewWSHub()
	go hub.Run()

	engine := ledger.New(catalog.Reference(), store.NewMemoryStore(), ledger.WithObserver(hub.Publish))
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(engine, hub)))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, hub *api.WSHub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, status)
	}
	t.Cleanup(func() { conn.Close() })

	// The hub registers the connection after the handshake completes.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

func TestWS_UpgradeThroughMiddleware(t *testing.T) {
	hub, srv := newStreamEnv(t)
	dial(t, hub, srv)

	if hub.Clients() != 1 {
		t.Errorf("expected 1 client, got %d", hub.Clients())
	}
}

func TestWS_StreamsAppendedTransactions(t *testing.T) {
	hub, srv := newStreamEnv(t)
	conn := dial(t, hub, srv)

	if resp := post(t, srv, "/api/v1/accounts", api.RegisterRequest{ID: "30111222"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	if resp := post(t, srv, "/api/v1/accounts/30111222/deposit", api.FiatRequest{Amount: d("250")}); resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg api.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "transaction_appended" {
		t.Errorf("expected transaction_appended, got %q", msg.Type)
	}
	if msg.Transaction == nil {
		t.Fatal("expected a transaction in the message")
	}
	tx := msg.Transaction
	if tx.Kind != model.KindDeposit || tx.AccountID != "30111222" || !tx.Amount.Equal(d("250")) {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if tx.ID == "" {
		t.Error("expected the streamed transaction to carry its ID")
	}
}

func TestWS_RefusalsAreNotStreamed(t *testing.T) {
	hub, srv := newStreamEnv(t)
	conn := dial(t, hub, srv)

	post(t, srv, "/api/v1/accounts", api.RegisterRequest{ID: "30111222"})
	// Not validated: refused, nothing appended.
	post(t, srv, "/api/v1/accounts/30111222/withdraw", api.FiatRequest{Amount: d("1"), Medium: model.MediumBankTransfer})
	post(t, srv, "/api/v1/accounts/30111222/deposit", api.FiatRequest{Amount: d("5")})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg api.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Transaction == nil || msg.Transaction.Kind != model.KindDeposit {
		t.Errorf("expected the deposit as the first streamed record, got %+v", msg.Transaction)
	}
}
