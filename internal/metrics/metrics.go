// Package metrics provides Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts successful ledger operations by transaction kind.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Total number of ledger operations appended to the log",
	}, []string{"kind"})

	// RefusalsTotal counts operations refused by a business rule.
	RefusalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_refusals_total",
		Help: "Ledger operations refused by a business rule",
	}, []string{"kind", "reason"})

	// PersistenceFailures counts snapshot writes that failed after the
	// in-memory mutation had already been applied.
	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_persistence_failures_total",
		Help: "Snapshot writes that failed after a mutation",
	})

	// AssetVolume tracks cumulative asset units moved, per kind and asset.
	AssetVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_asset_volume_total",
		Help: "Cumulative amount moved per transaction kind and asset",
	}, []string{"kind", "asset"})

	// Accounts tracks the number of registered accounts.
	Accounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_accounts",
		Help: "Number of registered accounts",
	})

	// LogLength tracks the number of transactions in the log.
	LogLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_log_length",
		Help: "Number of transactions in the ledger log",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
// The wrapped writer keeps http.Hijacker and http.Flusher, so WebSocket
// upgrades pass through it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		// Route pattern keeps account IDs out of the label set.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}
