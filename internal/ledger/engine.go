// Package ledger is the exchange's core: it validates and executes fiat and
// crypto operations against the account store and the asset catalog, and
// appends one immutable transaction per successful operation.
//
// All monetary values use shopspring/decimal, never float64 for money.
//
// The Engine is single-threaded. Every call runs check → mutate → log →
// persist to completion before returning; callers that serve several
// clients must serialize calls into it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/account"
	"github.com/cryptoledger/ledger-engine/internal/calendar"
	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/metrics"
	"github.com/cryptoledger/ledger-engine/internal/model"
	"github.com/cryptoledger/ledger-engine/internal/store"
)

// Observer is notified of every transaction appended to the log.
type Observer func(model.Transaction)

// Engine executes ledger operations.
type Engine struct {
	catalog   *catalog.Catalog
	accounts  *account.Store
	store     store.Store
	log       []model.Transaction
	restored  model.BalanceSnapshot // snapshot balances not yet claimed by a registration
	today     func() calendar.Date
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the date stamped on transactions.
func WithClock(today func() calendar.Date) Option {
	return func(e *Engine) { e.today = today }
}

// WithObserver registers fn to receive appended transactions.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

// New creates an engine with an empty log and no restored balances.
func New(cat *catalog.Catalog, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		accounts: account.NewStore(cat),
		store:    st,
		restored: model.BalanceSnapshot{},
		today:    calendar.Today,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open creates an engine hydrated from the store's snapshots. A missing or
// corrupt snapshot is a cold start for that snapshot; any other load error
// is returned, since the next commit would overwrite what could not be
// read. Restored balances are applied to each account when it registers.
func Open(ctx context.Context, cat *catalog.Catalog, st store.Store, opts ...Option) (*Engine, error) {
	e := New(cat, st, opts...)

	txs, err := st.LoadTransactions(ctx)
	switch {
	case err == nil:
		e.log = txs
		slog.Info("transaction log restored", "transactions", len(txs))
	case errors.Is(err, store.ErrNoSnapshot):
		slog.Info("no transaction snapshot, cold start")
	case errors.Is(err, store.ErrCorruptSnapshot):
		slog.Warn("transaction snapshot corrupt, cold start", "err", err)
	default:
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	snap, err := st.LoadBalances(ctx)
	if err == nil {
		err = checkBalances(snap)
	}
	switch {
	case err == nil:
		e.restored = snap
		slog.Info("balance snapshot restored", "accounts", len(snap))
	case errors.Is(err, store.ErrNoSnapshot):
		slog.Info("no balance snapshot, cold start")
	case errors.Is(err, store.ErrCorruptSnapshot):
		slog.Warn("balance snapshot corrupt, cold start", "err", err)
	default:
		return nil, fmt.Errorf("load balances: %w", err)
	}

	metrics.LogLength.Set(float64(len(e.log)))
	return e, nil
}

// checkBalances rejects a snapshot holding a negative balance.
func checkBalances(snap model.BalanceSnapshot) error {
	for id, b := range snap {
		if b.Fiat.IsNegative() {
			return fmt.Errorf("%w: account %s has negative fiat %s", store.ErrCorruptSnapshot, id, b.Fiat)
		}
		for sym, v := range b.Crypto {
			if v.IsNegative() {
				return fmt.Errorf("%w: account %s has negative %s %s", store.ErrCorruptSnapshot, id, sym, v)
			}
		}
	}
	return nil
}

// Catalog returns the catalog the engine trades against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Register creates an account with zero balances, or with the balances a
// restored snapshot holds for its ID, and persists the balance snapshot.
func (e *Engine) Register(ctx context.Context, acc model.Account) error {
	if err := e.accounts.Create(acc); err != nil {
		metrics.RefusalsTotal.WithLabelValues("register", reason(err)).Inc()
		return err
	}
	metrics.Accounts.Set(float64(e.accounts.Len()))

	if b, ok := e.restored[acc.ID]; ok {
		live, _ := e.accounts.Find(acc.ID)
		live.Fiat = b.Fiat
		for sym, v := range b.Crypto {
			live.Crypto[sym] = v
		}
		delete(e.restored, acc.ID)
		slog.Info("account balances restored", "account", acc.ID, "fiat", b.Fiat.String())
	}

	slog.Info("account registered", "account", acc.ID)

	if err := e.store.SaveBalances(ctx, e.balanceSnapshot()); err != nil {
		metrics.PersistenceFailures.Inc()
		slog.Error("balance snapshot write failed", "account", acc.ID, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Validate marks the identity of id as confirmed. Reports false when the
// account does not exist.
func (e *Engine) Validate(id string) bool {
	ok := e.accounts.MarkValidated(id)
	if ok {
		slog.Info("account validated", "account", id)
	}
	return ok
}

// Account returns a copy of the account with the given ID.
func (e *Engine) Account(id string) (model.Account, bool) {
	a, ok := e.accounts.Find(id)
	if !ok {
		return model.Account{}, false
	}
	return a.Clone(), true
}

// Accounts returns copies of every account in registration order.
func (e *Engine) Accounts() []model.Account {
	all := e.accounts.All()
	out := make([]model.Account, 0, len(all))
	for _, a := range all {
		out = append(out, a.Clone())
	}
	return out
}

// Transactions returns a copy of the log in append order.
func (e *Engine) Transactions() []model.Transaction {
	return append([]model.Transaction(nil), e.log...)
}

// --- Fiat ---

// DepositFiat credits amount to the account. No validation is required.
func (e *Engine) DepositFiat(ctx context.Context, id string, amount decimal.Decimal) error {
	kind := model.KindDeposit
	if !amount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	acc, err := e.find(kind, id)
	if err != nil {
		return err
	}

	acc.Fiat = acc.Fiat.Add(amount)

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    amount,
	})
}

// WithdrawFiat debits amount from a validated account with enough fiat.
func (e *Engine) WithdrawFiat(ctx context.Context, id string, amount decimal.Decimal, medium model.PaymentMedium) error {
	kind := model.KindWithdraw
	if !amount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	if !medium.Valid() {
		return e.refuse(kind, fmt.Errorf("%w: %q", ErrInvalidMedium, medium))
	}
	acc, err := e.debitable(kind, id)
	if err != nil {
		return err
	}
	if acc.Fiat.LessThan(amount) {
		return e.refuse(kind, fmt.Errorf("%w: fiat %s < %s", ErrInsufficientBalance, acc.Fiat, amount))
	}

	acc.Fiat = acc.Fiat.Sub(amount)

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    amount,
		Medium:    medium,
	})
}

// --- Trading ---

// Buy spends fiatAmount on asset at its quoted price.
func (e *Engine) Buy(ctx context.Context, id string, asset catalog.Asset, fiatAmount decimal.Decimal) error {
	kind := model.KindBuy
	price := e.catalog.PriceOf(asset)
	if !fiatAmount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	acc, err := e.debitable(kind, id)
	if err != nil {
		return err
	}
	if acc.Fiat.LessThan(fiatAmount) {
		return e.refuse(kind, fmt.Errorf("%w: fiat %s < %s", ErrInsufficientBalance, acc.Fiat, fiatAmount))
	}

	acc.Fiat = acc.Fiat.Sub(fiatAmount)
	acc.Crypto[asset.Symbol] = acc.Crypto[asset.Symbol].Add(fiatAmount.Div(price))

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    fiatAmount,
		Asset:     asset.Symbol,
		Price:     price,
	})
}

// Sell converts cryptoAmount units of asset back to fiat at its quoted price.
func (e *Engine) Sell(ctx context.Context, id string, asset catalog.Asset, cryptoAmount decimal.Decimal) error {
	kind := model.KindSell
	price := e.catalog.PriceOf(asset)
	if !cryptoAmount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	acc, err := e.debitable(kind, id)
	if err != nil {
		return err
	}
	if held := acc.Crypto[asset.Symbol]; held.LessThan(cryptoAmount) {
		return e.refuse(kind, fmt.Errorf("%w: %s %s < %s", ErrInsufficientBalance, asset.Symbol, held, cryptoAmount))
	}

	acc.Crypto[asset.Symbol] = acc.Crypto[asset.Symbol].Sub(cryptoAmount)
	acc.Fiat = acc.Fiat.Add(cryptoAmount.Mul(price))

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    cryptoAmount,
		Asset:     asset.Symbol,
		Price:     price,
	})
}

// --- Network transfers ---

// WithdrawToNetwork sends amount of asset out over network.
func (e *Engine) WithdrawToNetwork(ctx context.Context, id string, asset catalog.Asset, amount decimal.Decimal, network catalog.Network) error {
	kind := model.KindNetworkWithdraw
	asset, price := e.resolve(asset)
	if !amount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	if !asset.Supports(network) {
		return e.refuse(kind, fmt.Errorf("%w: %s on %s", ErrIncompatibleNetwork, asset.Symbol, network.Symbol))
	}
	acc, err := e.debitable(kind, id)
	if err != nil {
		return err
	}
	if held := acc.Crypto[asset.Symbol]; held.LessThan(amount) {
		return e.refuse(kind, fmt.Errorf("%w: %s %s < %s", ErrInsufficientBalance, asset.Symbol, held, amount))
	}

	acc.Crypto[asset.Symbol] = acc.Crypto[asset.Symbol].Sub(amount)

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    amount,
		Asset:     asset.Symbol,
		Price:     price,
		Network:   network.Symbol,
		Hash:      network.Prefix + "-" + uuid.NewString(),
	})
}

// DepositFromNetwork credits amount of asset received over network. Incoming
// transfers do not require a validated identity.
func (e *Engine) DepositFromNetwork(ctx context.Context, id string, asset catalog.Asset, amount decimal.Decimal, network catalog.Network) error {
	kind := model.KindNetworkDeposit
	asset, price := e.resolve(asset)
	if !amount.IsPositive() {
		return e.refuse(kind, ErrInvalidAmount)
	}
	if !asset.Supports(network) {
		return e.refuse(kind, fmt.Errorf("%w: %s on %s", ErrIncompatibleNetwork, asset.Symbol, network.Symbol))
	}
	acc, err := e.find(kind, id)
	if err != nil {
		return err
	}

	acc.Crypto[asset.Symbol] = acc.Crypto[asset.Symbol].Add(amount)

	return e.commit(ctx, model.Transaction{
		Kind:      kind,
		AccountID: id,
		Amount:    amount,
		Asset:     asset.Symbol,
		Price:     price,
		Network:   network.Symbol,
	})
}

// --- Internals ---

// resolve swaps a caller-supplied asset for the catalog's own copy, so the
// network set checked is the registered one. Panics like PriceOf on a miss.
func (e *Engine) resolve(a catalog.Asset) (catalog.Asset, decimal.Decimal) {
	price := e.catalog.PriceOf(a)
	registered, _ := e.catalog.Lookup(a.Symbol)
	return registered, price
}

func (e *Engine) find(kind model.Kind, id string) (*model.Account, error) {
	acc, ok := e.accounts.Find(id)
	if !ok {
		return nil, e.refuse(kind, fmt.Errorf("%w: %s", ErrAccountNotFound, id))
	}
	return acc, nil
}

// debitable returns the account if it exists and may be debited.
func (e *Engine) debitable(kind model.Kind, id string) (*model.Account, error) {
	acc, err := e.find(kind, id)
	if err != nil {
		return nil, err
	}
	if !acc.Validated {
		return nil, e.refuse(kind, fmt.Errorf("%w: %s", ErrNotValidated, id))
	}
	return acc, nil
}

func (e *Engine) refuse(kind model.Kind, err error) error {
	metrics.RefusalsTotal.WithLabelValues(string(kind), reason(err)).Inc()
	slog.Debug("operation refused", "kind", kind, "err", err)
	return err
}

// commit stamps tx, appends it and rewrites both snapshots. The mutation is
// already applied when commit runs; a failed write is reported but not
// undone.
func (e *Engine) commit(ctx context.Context, tx model.Transaction) error {
	tx.ID = uuid.NewString()
	tx.Date = e.today()
	e.log = append(e.log, tx)

	metrics.OperationsTotal.WithLabelValues(string(tx.Kind)).Inc()
	metrics.LogLength.Set(float64(len(e.log)))
	if tx.Asset != "" {
		metrics.AssetVolume.WithLabelValues(string(tx.Kind), tx.Asset).Add(tx.Amount.InexactFloat64())
	}

	slog.Info("transaction appended",
		"id", tx.ID,
		"kind", tx.Kind,
		"account", tx.AccountID,
		"amount", tx.Amount.String(),
		"asset", tx.Asset,
		"price", tx.Price.String(),
		"network", tx.Network,
	)

	for _, fn := range e.observers {
		fn(tx)
	}

	txErr := e.store.SaveTransactions(ctx, e.log)
	balErr := e.store.SaveBalances(ctx, e.balanceSnapshot())
	if err := errors.Join(txErr, balErr); err != nil {
		metrics.PersistenceFailures.Inc()
		slog.Error("snapshot write failed", "id", tx.ID, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// balanceSnapshot builds the persisted balance map: every registered
// account, plus restored entries no registration has claimed yet.
func (e *Engine) balanceSnapshot() model.BalanceSnapshot {
	snap := make(model.BalanceSnapshot, len(e.restored)+e.accounts.Len())
	for id, b := range e.restored {
		snap[id] = b
	}
	for _, a := range e.accounts.All() {
		crypto := make(map[string]decimal.Decimal, len(a.Crypto))
		for sym, v := range a.Crypto {
			crypto[sym] = v
		}
		snap[a.ID] = model.Balance{Fiat: a.Fiat, Crypto: crypto}
	}
	return snap
}
