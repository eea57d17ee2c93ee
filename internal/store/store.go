// Package store defines the snapshot persistence interface for the ledger.
// Implementations include JSON files (default), PostgreSQL, a Redis
// write-through cache, and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

var (
	// ErrNoSnapshot is returned by loads when nothing was persisted yet.
	ErrNoSnapshot = errors.New("store: no snapshot")

	// ErrCorruptSnapshot is returned by loads when the persisted data cannot
	// be decoded.
	ErrCorruptSnapshot = errors.New("store: corrupt snapshot")
)

// Store persists two independent snapshots: the full transaction log and the
// per-account balances. Both are replaced wholesale on every save.
type Store interface {
	// --- Transaction log ---

	// SaveTransactions replaces the persisted log with txs.
	SaveTransactions(ctx context.Context, txs []model.Transaction) error

	// LoadTransactions returns the persisted log in append order.
	LoadTransactions(ctx context.Context) ([]model.Transaction, error)

	// --- Balances ---

	// SaveBalances replaces the persisted balance snapshot.
	SaveBalances(ctx context.Context, snap model.BalanceSnapshot) error

	// LoadBalances returns the persisted balance snapshot.
	LoadBalances(ctx context.Context) (model.BalanceSnapshot, error)
}

// Snapshot names, shared by the keyed backends.
const (
	transactionsName = "transactions"
	balancesName     = "balances"
)
