package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

// Default snapshot file names inside a data directory.
const (
	TransactionsFile = "transactions.json"
	BalancesFile     = "balances.json"
)

// FileStore keeps each snapshot in a pretty-printed JSON file. Every save
// writes a temporary file next to the target and renames it over.
type FileStore struct {
	transactionsPath string
	balancesPath     string
}

// NewFileStore creates a store writing to the two given paths.
func NewFileStore(transactionsPath, balancesPath string) *FileStore {
	return &FileStore{
		transactionsPath: transactionsPath,
		balancesPath:     balancesPath,
	}
}

// NewDirStore creates a FileStore using the default file names under dir.
func NewDirStore(dir string) *FileStore {
	return NewFileStore(
		filepath.Join(dir, TransactionsFile),
		filepath.Join(dir, BalancesFile),
	)
}

func (s *FileStore) SaveTransactions(_ context.Context, txs []model.Transaction) error {
	if txs == nil {
		txs = []model.Transaction{}
	}
	return writeJSON(s.transactionsPath, txs)
}

func (s *FileStore) LoadTransactions(_ context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := readJSON(s.transactionsPath, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *FileStore) SaveBalances(_ context.Context, snap model.BalanceSnapshot) error {
	if snap == nil {
		snap = model.BalanceSnapshot{}
	}
	return writeJSON(s.balancesPath, snap)
}

func (s *FileStore) LoadBalances(_ context.Context) (model.BalanceSnapshot, error) {
	var snap model.BalanceSnapshot
	if err := readJSON(s.balancesPath, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = model.BalanceSnapshot{}
	}
	return snap, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoSnapshot, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, path, err)
	}
	return nil
}
