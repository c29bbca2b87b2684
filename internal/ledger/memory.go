package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

var _ Ledger = (*MemoryLedger)(nil)

type account struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

// MemoryLedger keeps balances for the lifetime of the process.
// The map lock is held only to find or create an account; the read-modify-write
// happens under that account's own mutex.
type MemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{accounts: make(map[string]*account)}
}

func (l *MemoryLedger) lookup(userID string) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[userID]
}

func (l *MemoryLedger) getOrCreate(userID string) *account {
	if acc := l.lookup(userID); acc != nil {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok {
		acc = &account{balance: decimal.Zero}
		l.accounts[userID] = acc
	}
	return acc
}

// Balance returns the user's total, zero if the user has never collected.
func (l *MemoryLedger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	acc := l.lookup(userID)
	if acc == nil {
		return decimal.Zero, nil
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

// Credit adds amount to the user's balance and returns the new total.
func (l *MemoryLedger) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateCredit(userID, amount); err != nil {
		return decimal.Zero, err
	}

	acc := l.getOrCreate(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.balance = acc.balance.Add(amount)
	return acc.balance, nil
}
