// Package model defines the core domain types shared across the ledger.
// All monetary values use shopspring/decimal, never float64 for money.
package model

import (
	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/calendar"
)

// Account is a user of the exchange, keyed by national ID.
// Accounts are never deleted; the ID is immutable after creation.
type Account struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Surname   string                     `json:"surname"`
	Email     string                     `json:"email"`
	Validated bool                       `json:"validated"`
	Fiat      decimal.Decimal            `json:"fiat"`
	Crypto    map[string]decimal.Decimal `json:"crypto"` // asset symbol → balance
}

// Clone returns a deep copy so callers cannot reach the stored balances.
func (a *Account) Clone() Account {
	c := *a
	c.Crypto = make(map[string]decimal.Decimal, len(a.Crypto))
	for k, v := range a.Crypto {
		c.Crypto[k] = v
	}
	return c
}

// Kind discriminates transaction records.
type Kind string

const (
	KindDeposit         Kind = "deposit"
	KindWithdraw        Kind = "withdraw"
	KindBuy             Kind = "buy"
	KindSell            Kind = "sell"
	KindNetworkWithdraw Kind = "network_withdraw"
	KindNetworkDeposit  Kind = "network_deposit"
)

// Kinds lists every transaction kind in declaration order.
var Kinds = []Kind{
	KindDeposit, KindWithdraw, KindBuy, KindSell, KindNetworkWithdraw, KindNetworkDeposit,
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HasAsset reports whether records of this kind name an asset.
func (k Kind) HasAsset() bool {
	switch k {
	case KindBuy, KindSell, KindNetworkWithdraw, KindNetworkDeposit:
		return true
	}
	return false
}

// PaymentMedium is the rail used to pay out a fiat withdrawal.
type PaymentMedium string

const (
	MediumBankTransfer PaymentMedium = "bank_transfer"
	MediumMercadoPago  PaymentMedium = "mercado_pago"
)

// Valid reports whether m is a known medium.
func (m PaymentMedium) Valid() bool {
	return m == MediumBankTransfer || m == MediumMercadoPago
}

// Transaction is an immutable record of one successful ledger operation.
// Once appended to the log it is never modified, removed or reordered.
//
// Which optional fields are set depends on Kind:
//   - withdraw: Medium
//   - buy/sell: Asset, Price
//   - network_withdraw: Asset, Price, Network, Hash
//   - network_deposit: Asset, Price, Network
type Transaction struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	AccountID string          `json:"account_id"`
	Date      calendar.Date   `json:"date"`
	Amount    decimal.Decimal `json:"amount"` // fiat for deposit/withdraw/buy, asset units otherwise
	Medium    PaymentMedium   `json:"medium,omitempty"`
	Asset     string          `json:"asset,omitempty"`
	Price     decimal.Decimal `json:"price"` // quoted price at execution time
	Network   string          `json:"network,omitempty"`
	Hash      string          `json:"hash,omitempty"`
}

// Equal compares every field. Decimals compare by value, so 1.0 equals 1.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Kind == o.Kind &&
		t.AccountID == o.AccountID &&
		t.Date.Equal(o.Date) &&
		t.Amount.Equal(o.Amount) &&
		t.Medium == o.Medium &&
		t.Asset == o.Asset &&
		t.Price.Equal(o.Price) &&
		t.Network == o.Network &&
		t.Hash == o.Hash
}

// Balance is the persisted balance state of one account.
type Balance struct {
	Fiat   decimal.Decimal            `json:"fiat"`
	Crypto map[string]decimal.Decimal `json:"crypto"`
}

// BalanceSnapshot maps account ID to its balances. It is rewritten
// wholesale after every mutation.
type BalanceSnapshot map[string]Balance
