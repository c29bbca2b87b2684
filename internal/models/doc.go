// Package models defines the core domain models for the treasure hunt backend.
//
// # Models
//
//   - Treasure: a fixed geographic point that can be collected
//   - RewardOption: one possible payout for a treasure
//   - NearbyTreasure: a Treasure annotated with its distance from a search center
//   - Point: a latitude/longitude pair in degrees
//
// Users are identified by opaque strings supplied by the caller; there is no
// user model on the collection path.
//
// # Design Principles
//
//  1. Treasures are immutable once loaded; stores own them
//  2. Money is always decimal.Decimal, never float64
//  3. Relationships use IDs instead of pointers (RewardOption.TreasureID)
package models
