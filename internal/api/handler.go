// Package api exposes the ledger over HTTP and streams appended
// transactions over WebSocket.
//
// All monetary values use shopspring/decimal, never float64 for money.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/ledger"
	"github.com/cryptoledger/ledger-engine/internal/model"
	"github.com/cryptoledger/ledger-engine/internal/report"
)

// Handler serves the ledger API. The engine is single-threaded, so every
// call into it goes through one mutex.
type Handler struct {
	mu     sync.Mutex
	engine *ledger.Engine
	hub    *WSHub // optional WebSocket hub
}

// NewHandler creates a handler over engine.
// Pass nil for hub if WebSocket streaming is not needed.
func NewHandler(engine *ledger.Engine, hub *WSHub) *Handler {
	return &Handler{engine: engine, hub: hub}
}

// Routes mounts the API on r. Callers usually mount it under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	if h.hub != nil {
		r.Get("/ws", h.hub.HandleWS)
	}

	r.Get("/assets", h.ListAssets)
	r.Get("/transactions", h.ListTransactions)
	r.Get("/reports/most-traded", h.MostTraded)
	r.Get("/reports/summary", h.Summary)

	r.Post("/accounts", h.RegisterAccount)
	r.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Get("/", h.GetAccount)
		r.Post("/validate", h.ValidateAccount)
		r.Post("/deposit", h.DepositFiat)
		r.Post("/withdraw", h.WithdrawFiat)
		r.Post("/buy", h.Buy)
		r.Post("/sell", h.Sell)
		r.Post("/network-withdraw", h.WithdrawToNetwork)
		r.Post("/network-deposit", h.DepositFromNetwork)
	})
}

// --- Request/Response types ---

// RegisterRequest is the JSON body for account registration.
type RegisterRequest struct {
	ID      string `json:"id"` // national ID
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// FiatRequest is the JSON body for fiat deposits and withdrawals.
type FiatRequest struct {
	Amount decimal.Decimal     `json:"amount"`
	Medium model.PaymentMedium `json:"medium,omitempty"` // withdrawals only
}

// TradeRequest is the JSON body for buy and sell. Amount is fiat for a buy
// and asset units for a sell.
type TradeRequest struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest is the JSON body for network withdrawals and deposits.
type TransferRequest struct {
	Asset   string          `json:"asset"`
	Network string          `json:"network"`
	Amount  decimal.Decimal `json:"amount"`
}

// MostTradedResponse is returned from GET /reports/most-traded.
type MostTradedResponse struct {
	Kind  model.Kind `json:"kind"`
	By    string     `json:"by"`
	Asset *string    `json:"asset"` // null when nothing qualifies
}

// --- Accounts ---

// RegisterAccount handles POST /api/v1/accounts
func (h *Handler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.engine.Register(r.Context(), model.Account{
		ID:      req.ID,
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	acc, _ := h.engine.Account(req.ID)
	writeJSON(w, http.StatusCreated, acc)
}

// GetAccount handles GET /api/v1/accounts/{accountID}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	acc, ok := h.engine.Account(id)
	h.mu.Unlock()

	if !ok {
		writeError(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ValidateAccount handles POST /api/v1/accounts/{accountID}/validate
func (h *Handler) ValidateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.engine.Validate(id) {
		writeError(w, "account not found", http.StatusNotFound)
		return
	}
	acc, _ := h.engine.Account(id)
	writeJSON(w, http.StatusOK, acc)
}

// --- Fiat ---

// DepositFiat handles POST /api/v1/accounts/{accountID}/deposit
func (h *Handler) DepositFiat(w http.ResponseWriter, r *http.Request) {
	var req FiatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.DepositFiat(r.Context(), id, req.Amount))
}

// WithdrawFiat handles POST /api/v1/accounts/{accountID}/withdraw
func (h *Handler) WithdrawFiat(w http.ResponseWriter, r *http.Request) {
	var req FiatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.WithdrawFiat(r.Context(), id, req.Amount, req.Medium))
}

// --- Trading ---

// Buy handles POST /api/v1/accounts/{accountID}/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	asset, ok := h.engine.Catalog().Lookup(req.Asset)
	if !ok {
		writeError(w, "asset not found: "+req.Asset, http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.Buy(r.Context(), id, asset, req.Amount))
}

// Sell handles POST /api/v1/accounts/{accountID}/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	asset, ok := h.engine.Catalog().Lookup(req.Asset)
	if !ok {
		writeError(w, "asset not found: "+req.Asset, http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.Sell(r.Context(), id, asset, req.Amount))
}

// --- Network transfers ---

// WithdrawToNetwork handles POST /api/v1/accounts/{accountID}/network-withdraw
func (h *Handler) WithdrawToNetwork(w http.ResponseWriter, r *http.Request) {
	asset, network, req, ok := h.decodeTransfer(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.WithdrawToNetwork(r.Context(), id, asset, req.Amount, network))
}

// DepositFromNetwork handles POST /api/v1/accounts/{accountID}/network-deposit
func (h *Handler) DepositFromNetwork(w http.ResponseWriter, r *http.Request) {
	asset, network, req, ok := h.decodeTransfer(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "accountID")

	h.mu.Lock()
	defer h.mu.Unlock()

	h.respond(w, id, h.engine.DepositFromNetwork(r.Context(), id, asset, req.Amount, network))
}

func (h *Handler) decodeTransfer(w http.ResponseWriter, r *http.Request) (catalog.Asset, catalog.Network, TransferRequest, bool) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return catalog.Asset{}, catalog.Network{}, req, false
	}
	cat := h.engine.Catalog()
	asset, ok := cat.Lookup(req.Asset)
	if !ok {
		writeError(w, "asset not found: "+req.Asset, http.StatusNotFound)
		return catalog.Asset{}, catalog.Network{}, req, false
	}
	network, ok := cat.Network(req.Network)
	if !ok {
		writeError(w, "network not found: "+req.Network, http.StatusNotFound)
		return catalog.Asset{}, catalog.Network{}, req, false
	}
	return asset, network, req, true
}

// --- Queries ---

// ListAssets handles GET /api/v1/assets
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog().Assets())
}

// ListTransactions handles GET /api/v1/transactions
// Optionally filtered by ?account=<id> and ?kind=<kind>.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	txs := h.engine.Transactions()
	h.mu.Unlock()

	account := r.URL.Query().Get("account")
	kind := r.URL.Query().Get("kind")
	if kind != "" {
		if _, ok := model.ParseKind(kind); !ok {
			writeError(w, "unknown kind: "+kind, http.StatusBadRequest)
			return
		}
	}

	filtered := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if account != "" && tx.AccountID != account {
			continue
		}
		if kind != "" && string(tx.Kind) != kind {
			continue
		}
		filtered = append(filtered, tx)
	}
	writeJSON(w, http.StatusOK, filtered)
}

// MostTraded handles GET /api/v1/reports/most-traded?kind=sell&by=volume
// by defaults to "count".
func (h *Handler) MostTraded(w http.ResponseWriter, r *http.Request) {
	kind, ok := model.ParseKind(r.URL.Query().Get("kind"))
	if !ok || !kind.HasAsset() {
		writeError(w, "kind must be one of buy, sell, network_withdraw, network_deposit", http.StatusBadRequest)
		return
	}
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "count"
	}

	h.mu.Lock()
	txs := h.engine.Transactions()
	h.mu.Unlock()

	var asset string
	var found bool
	switch by {
	case "count":
		asset, found = report.MostTradedByCount(txs, kind)
	case "volume":
		asset, found = report.MostTradedByVolume(txs, kind)
	default:
		writeError(w, "by must be count or volume", http.StatusBadRequest)
		return
	}

	resp := MostTradedResponse{Kind: kind, By: by}
	if found {
		resp.Asset = &asset
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary handles GET /api/v1/reports/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	txs := h.engine.Transactions()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, report.Summary(txs))
}

// --- Helpers ---

// respond writes the account state after a ledger operation, or the error.
// Must be called with h.mu held.
func (h *Handler) respond(w http.ResponseWriter, id string, err error) {
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	acc, _ := h.engine.Account(id)
	writeJSON(w, http.StatusOK, acc)
}

// writeLedgerError maps ledger errors to HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNotValidated):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrIncompatibleNetwork),
		errors.Is(err, ledger.ErrDuplicateAccount):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidMedium):
		status = http.StatusBadRequest
	default:
		slog.Error("ledger operation failed", "err", err)
	}
	writeError(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
