// Package ledger tracks each user's accumulated reward balance.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidUser   = errors.New("user id must not be empty")
	ErrInvalidAmount = errors.New("credit amount must be non-negative")
)

// Ledger maps user IDs to balances. Credit is the only mutator and must be atomic
// per user: concurrent credits for one user never lose an update, while credits for
// different users do not wait on each other.
type Ledger interface {
	// Balance returns the user's total, or zero for an unknown user.
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)

	// Credit adds amount to the user's balance and returns the new total.
	// On error the balance is unchanged.
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
}

func validateCredit(userID string, amount decimal.Decimal) error {
	if userID == "" {
		return ErrInvalidUser
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
