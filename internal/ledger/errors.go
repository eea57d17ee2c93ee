package ledger

import (
	"errors"

	"github.com/cryptoledger/ledger-engine/internal/account"
)

// Business-rule refusals. A refused operation leaves balances and the log
// untouched.
var (
	ErrAccountNotFound     = errors.New("ledger: account not found")
	ErrNotValidated        = errors.New("ledger: account identity not validated")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrIncompatibleNetwork = errors.New("ledger: asset not supported on network")
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidMedium       = errors.New("ledger: unknown payment medium")
	ErrDuplicateAccount    = account.ErrDuplicateAccount
)

// ErrPersistence wraps snapshot write failures. The in-memory mutation that
// preceded the write has already taken effect when this is returned.
var ErrPersistence = errors.New("ledger: snapshot persistence failed")

// IsRefusal reports whether err is a business-rule refusal, as opposed to a
// persistence failure.
func IsRefusal(err error) bool {
	return reason(err) != ""
}

// reason returns the metric label for a refusal, or "" if err is not one.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrNotValidated):
		return "not_validated"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrIncompatibleNetwork):
		return "incompatible_network"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidMedium):
		return "invalid_medium"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate_account"
	}
	return ""
}
