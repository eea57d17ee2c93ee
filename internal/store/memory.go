package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

// MemoryStore implements Store with in-memory copies. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	txs      []model.Transaction
	balances model.BalanceSnapshot
	saves    int
	writeErr error
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailWrites makes every subsequent save return err. Pass nil to recover.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Saves returns how many saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) SaveTransactions(_ context.Context, txs []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	// Store a copy to avoid external mutation.
	s.txs = append(make([]model.Transaction, 0, len(txs)), txs...)
	s.saves++
	return nil
}

func (s *MemoryStore) LoadTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.txs == nil {
		return nil, ErrNoSnapshot
	}
	return append([]model.Transaction(nil), s.txs...), nil
}

func (s *MemoryStore) SaveBalances(_ context.Context, snap model.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	s.balances = copySnapshot(snap)
	s.saves++
	return nil
}

func (s *MemoryStore) LoadBalances(_ context.Context) (model.BalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.balances == nil {
		return nil, ErrNoSnapshot
	}
	return copySnapshot(s.balances), nil
}

func copySnapshot(snap model.BalanceSnapshot) model.BalanceSnapshot {
	out := make(model.BalanceSnapshot, len(snap))
	for id, b := range snap {
		crypto := make(map[string]decimal.Decimal, len(b.Crypto))
		for sym, v := range b.Crypto {
			crypto[sym] = v
		}
		out[id] = model.Balance{Fiat: b.Fiat, Crypto: crypto}
	}
	return out
}
