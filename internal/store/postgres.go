package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

// PostgresStore implements Store on a single key/value table. Each snapshot
// is one JSONB row, upserted wholesale; decimals keep their exact string
// form inside the document.
//
//	CREATE TABLE ledger_snapshots (
//	    name       TEXT PRIMARY KEY,
//	    body       JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS ledger_snapshots (
			name       TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`)
	return err
}

func (s *PostgresStore) SaveTransactions(ctx context.Context, txs []model.Transaction) error {
	if txs == nil {
		txs = []model.Transaction{}
	}
	return s.put(ctx, transactionsName, txs)
}

func (s *PostgresStore) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := s.get(ctx, transactionsName, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *PostgresStore) SaveBalances(ctx context.Context, snap model.BalanceSnapshot) error {
	if snap == nil {
		snap = model.BalanceSnapshot{}
	}
	return s.put(ctx, balancesName, snap)
}

func (s *PostgresStore) LoadBalances(ctx context.Context) (model.BalanceSnapshot, error) {
	var snap model.BalanceSnapshot
	if err := s.get(ctx, balancesName, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = model.BalanceSnapshot{}
	}
	return snap, nil
}

func (s *PostgresStore) put(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ledger_snapshots (name, body, updated_at)
		 VALUES ($1, $2::JSONB, now())
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		name, string(body),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) get(ctx context.Context, name string, v any) error {
	var body string
	err := s.pool.QueryRow(ctx,
		`SELECT body::TEXT FROM ledger_snapshots WHERE name = $1`, name).
		Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNoSnapshot, name)
		}
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, name, err)
	}
	return nil
}
