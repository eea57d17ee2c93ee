package account_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/account"
	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/model"
)

func newStore(t *testing.T) *account.Store {
	t.Helper()
	return account.NewStore(catalog.Reference())
}

func TestCreate_SeedsZeroBalances(t *testing.T) {
	s := newStore(t)
	if err := s.Create(model.Account{ID: "45497524", Name: "Nahuel", Surname: "Luna", Email: "example@gmail.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, ok := s.Find("45497524")
	if !ok {
		t.Fatal("expected account to be found")
	}
	if a.Validated {
		t.Error("new accounts start unvalidated")
	}
	if !a.Fiat.IsZero() {
		t.Errorf("expected zero fiat, got %s", a.Fiat)
	}
	if len(a.Crypto) != 4 {
		t.Fatalf("expected 4 crypto balances, got %d", len(a.Crypto))
	}
	for sym, bal := range a.Crypto {
		if !bal.IsZero() {
			t.Errorf("expected zero %s balance, got %s", sym, bal)
		}
	}
}

func TestCreate_IgnoresCallerBalances(t *testing.T) {
	s := newStore(t)
	s.Create(model.Account{ID: "1", Validated: true, Fiat: decimal.NewFromInt(500)})

	a, _ := s.Find("1")
	if a.Validated || !a.Fiat.IsZero() {
		t.Errorf("registration must start from a clean state, got %+v", a)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	s := newStore(t)
	s.Create(model.Account{ID: "45497524", Name: "Nahuel", Email: "example@gmail.com"})

	err := s.Create(model.Account{ID: "45497524", Name: "Pablo", Email: "test@gmail.com"})
	if !errors.Is(err, account.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	a, _ := s.Find("45497524")
	if a.Name != "Nahuel" || a.Email != "example@gmail.com" {
		t.Errorf("first account must be unchanged, got %+v", a)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 account, got %d", s.Len())
	}
}

func TestMarkValidated(t *testing.T) {
	s := newStore(t)
	s.Create(model.Account{ID: "1"})

	if !s.MarkValidated("1") {
		t.Error("expected true for existing account")
	}
	a, _ := s.Find("1")
	if !a.Validated {
		t.Error("expected account to be validated")
	}
	if s.MarkValidated("missing") {
		t.Error("expected false for unknown account")
	}
}

func TestAll_RegistrationOrder(t *testing.T) {
	s := newStore(t)
	ids := []string{"50321572", "27427323", "35587534"}
	for _, id := range ids {
		s.Create(model.Account{ID: id})
	}
	all := s.All()
	if len(all) != len(ids) {
		t.Fatalf("expected %d accounts, got %d", len(ids), len(all))
	}
	for i, a := range all {
		if a.ID != ids[i] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i], a.ID)
		}
	}
}
