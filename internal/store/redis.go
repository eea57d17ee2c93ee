package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache.
// Writes go to the primary store and then refresh the cache; reads check
// Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     redis.Cmdable
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb redis.Cmdable, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, refresh cache) ---

func (s *CachedStore) SaveTransactions(ctx context.Context, txs []model.Transaction) error {
	if err := s.primary.SaveTransactions(ctx, txs); err != nil {
		// Stale cache must not outlive a failed primary write.
		s.rdb.Del(ctx, cacheKey(transactionsName))
		return err
	}
	s.cache(ctx, transactionsName, txs)
	return nil
}

func (s *CachedStore) SaveBalances(ctx context.Context, snap model.BalanceSnapshot) error {
	if err := s.primary.SaveBalances(ctx, snap); err != nil {
		s.rdb.Del(ctx, cacheKey(balancesName))
		return err
	}
	s.cache(ctx, balancesName, snap)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	data, err := s.rdb.Get(ctx, cacheKey(transactionsName)).Bytes()
	if err == nil {
		var txs []model.Transaction
		if json.Unmarshal(data, &txs) == nil {
			return txs, nil
		}
	}

	// Cache miss: read from primary.
	txs, err := s.primary.LoadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, transactionsName, txs)
	return txs, nil
}

func (s *CachedStore) LoadBalances(ctx context.Context) (model.BalanceSnapshot, error) {
	data, err := s.rdb.Get(ctx, cacheKey(balancesName)).Bytes()
	if err == nil {
		var snap model.BalanceSnapshot
		if json.Unmarshal(data, &snap) == nil && snap != nil {
			return snap, nil
		}
	}

	snap, err := s.primary.LoadBalances(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, balancesName, snap)
	return snap, nil
}

// --- Cache helpers ---

func (s *CachedStore) cache(ctx context.Context, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(name), data, s.ttl).Err(); err != nil {
		slog.Warn("snapshot cache refresh failed", "snapshot", name, "err", err)
	}
}

func cacheKey(name string) string { return fmt.Sprintf("ledger:snapshot:%s", name) }
