package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ Ledger = (*RedisLedger)(nil)

// RedisLedger stores balances as integer cents, one key per user.
// INCRBY is atomic on the server, so concurrent credits from any number of
// processes never lose an update.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisLedger creates a ledger using keys of the form "<prefix>:balance:<userID>".
func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "treasurehunt"
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(userID string) string {
	return l.prefix + ":balance:" + userID
}

// Balance returns the user's total, zero if the key does not exist.
func (l *RedisLedger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	cents, err := l.client.Get(ctx, l.key(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return decimal.New(cents, -2), nil
}

// Credit atomically adds amount, rounded to cents, and returns the new total.
func (l *RedisLedger) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateCredit(userID, amount); err != nil {
		return decimal.Zero, err
	}

	cents := amount.Shift(2).Round(0).IntPart()
	total, err := l.client.IncrBy(ctx, l.key(userID), cents).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit balance: %w", err)
	}
	return decimal.New(total, -2), nil
}
