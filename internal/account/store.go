// Package account keeps the in-memory collection of exchange accounts.
//
// The store is not safe for concurrent use; the ledger engine that owns it
// runs single-threaded and any outer surface serializes calls into it.
package account

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/model"
)

// ErrDuplicateAccount is returned when registering an ID that already exists.
var ErrDuplicateAccount = errors.New("account: duplicate account id")

// Store holds accounts keyed by national ID. Accounts are append-only.
type Store struct {
	catalog  *catalog.Catalog
	accounts map[string]*model.Account
	order    []string // insertion order, for stable listings and snapshots
}

// NewStore creates an empty store seeding balances from cat.
func NewStore(cat *catalog.Catalog) *Store {
	return &Store{
		catalog:  cat,
		accounts: make(map[string]*model.Account),
	}
}

// Create inserts a copy of acc with validation cleared and zero balances for
// every catalog asset.
func (s *Store) Create(acc model.Account) error {
	if _, exists := s.accounts[acc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, acc.ID)
	}

	stored := &model.Account{
		ID:      acc.ID,
		Name:    acc.Name,
		Surname: acc.Surname,
		Email:   acc.Email,
		Fiat:    decimal.Zero,
		Crypto:  make(map[string]decimal.Decimal),
	}
	for _, sym := range s.catalog.Symbols() {
		stored.Crypto[sym] = decimal.Zero
	}

	s.accounts[acc.ID] = stored
	s.order = append(s.order, acc.ID)
	return nil
}

// Find returns the live account for id. Callers mutate it in place.
func (s *Store) Find(id string) (*model.Account, bool) {
	a, ok := s.accounts[id]
	return a, ok
}

// MarkValidated flags the identity of id as confirmed.
func (s *Store) MarkValidated(id string) bool {
	a, ok := s.accounts[id]
	if !ok {
		return false
	}
	a.Validated = true
	return true
}

// All returns the live accounts in registration order.
func (s *Store) All() []*model.Account {
	out := make([]*model.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out
}

// Len returns the number of registered accounts.
func (s *Store) Len() int { return len(s.order) }
