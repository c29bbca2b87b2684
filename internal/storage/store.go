// Package storage provides abstractions for treasure and reward persistence.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// NearbyFilter selects treasures around a center point.
type NearbyFilter struct {
	// Center is the search origin.
	Center models.Point

	// RadiusKm is the inclusive great-circle radius.
	RadiusKm float64

	// MinReward, when set, keeps only treasures with at least one reward
	// option whose amount is >= MinReward.
	MinReward *decimal.Decimal
}

// TreasureStore defines read access to treasures and their reward options.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, in-memory)
// without changing the service layer.
type TreasureStore interface {
	// GetTreasure retrieves a treasure by its ID.
	// Returns ErrNotFound (possibly wrapped) if the treasure does not exist.
	GetTreasure(ctx context.Context, id int64) (*models.Treasure, error)

	// ListRewardOptions returns every reward option of a treasure.
	// An unknown treasure yields an empty slice, not an error.
	ListRewardOptions(ctx context.Context, treasureID int64) ([]models.RewardOption, error)

	// FindNearby returns treasures within the filter's radius, each at most once,
	// ordered by distance then ID. Implementations may push the distance test into
	// a query, but it must agree with geo.DistanceKm.
	FindNearby(ctx context.Context, filter NearbyFilter) ([]models.NearbyTreasure, error)

	// Close releases any resources held by the store.
	Close() error
}

// TreasureWriter is implemented by stores that can be seeded.
type TreasureWriter interface {
	// CreateTreasure persists a treasure. A zero ID lets the store assign one.
	CreateTreasure(ctx context.Context, treasure *models.Treasure) error

	// AddRewardOption persists a reward option for an existing treasure.
	AddRewardOption(ctx context.Context, option *models.RewardOption) error
}
