package models

import "github.com/shopspring/decimal"

// RewardOption is one possible payout for a treasure.
// A treasure has zero or more options; a collection draws one of them at random.
type RewardOption struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id" yaml:"id"`

	// TreasureID references the owning Treasure.
	TreasureID int64 `json:"treasure_id" yaml:"treasure_id"`

	// Amount is the payout, non-negative with two fraction digits.
	Amount decimal.Decimal `json:"amt" yaml:"amt"`
}
