// Package memory provides an in-memory implementation of storage.TreasureStore.
// Nearby searches enumerate every treasure and filter with geo.DistanceKm, which
// makes it the reference implementation other stores are tested against.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/geo"
	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
)

// Ensure Store implements the storage interfaces
var (
	_ storage.TreasureStore  = (*Store)(nil)
	_ storage.TreasureWriter = (*Store)(nil)
)

// Store keeps treasures and reward options in maps guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	treasures map[int64]models.Treasure
	rewards   map[int64][]models.RewardOption
	nextID    int64
	nextOptID int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		treasures: make(map[int64]models.Treasure),
		rewards:   make(map[int64][]models.RewardOption),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateTreasure stores a treasure, assigning the next ID when treasure.ID is zero.
func (s *Store) CreateTreasure(ctx context.Context, treasure *models.Treasure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if treasure.ID == 0 {
		s.nextID++
		treasure.ID = s.nextID
	}
	if treasure.ID < 0 {
		return fmt.Errorf("invalid treasure id: %d", treasure.ID)
	}
	if _, exists := s.treasures[treasure.ID]; exists {
		return fmt.Errorf("treasure already exists: %d", treasure.ID)
	}
	if treasure.ID > s.nextID {
		s.nextID = treasure.ID
	}

	s.treasures[treasure.ID] = *treasure
	return nil
}

// AddRewardOption attaches a reward option to an existing treasure.
func (s *Store) AddRewardOption(ctx context.Context, option *models.RewardOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.treasures[option.TreasureID]; !exists {
		return fmt.Errorf("treasure %d: %w", option.TreasureID, storage.ErrNotFound)
	}
	if option.Amount.IsNegative() {
		return fmt.Errorf("reward amount must be non-negative: %s", option.Amount)
	}
	if option.ID == 0 {
		s.nextOptID++
		option.ID = s.nextOptID
	} else if option.ID > s.nextOptID {
		s.nextOptID = option.ID
	}

	s.rewards[option.TreasureID] = append(s.rewards[option.TreasureID], *option)
	return nil
}

// DeleteTreasure removes a treasure and, like the SQL schemas, its reward options.
func (s *Store) DeleteTreasure(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.treasures[id]; !exists {
		return fmt.Errorf("treasure %d: %w", id, storage.ErrNotFound)
	}
	delete(s.treasures, id)
	delete(s.rewards, id)
	return nil
}

// GetTreasure retrieves a treasure by ID.
func (s *Store) GetTreasure(ctx context.Context, id int64) (*models.Treasure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.treasures[id]
	if !ok {
		return nil, fmt.Errorf("treasure %d: %w", id, storage.ErrNotFound)
	}
	return &t, nil
}

// ListRewardOptions returns a copy of the treasure's reward options.
func (s *Store) ListRewardOptions(ctx context.Context, treasureID int64) ([]models.RewardOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := s.rewards[treasureID]
	out := make([]models.RewardOption, len(opts))
	copy(out, opts)
	return out, nil
}

// FindNearby scans every treasure and keeps those within the radius.
func (s *Store) FindNearby(ctx context.Context, filter storage.NearbyFilter) ([]models.NearbyTreasure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.NearbyTreasure, 0)
	for _, t := range s.treasures {
		d := geo.Distance(filter.Center, t.Point())
		if !(d <= filter.RadiusKm) {
			continue
		}
		if filter.MinReward != nil && !s.hasRewardAtLeast(t.ID, *filter.MinReward) {
			continue
		}
		results = append(results, models.NearbyTreasure{Treasure: t, DistanceKm: d})
	}

	storage.SortNearby(results)
	return results, nil
}

// hasRewardAtLeast must be called with s.mu held.
func (s *Store) hasRewardAtLeast(treasureID int64, min decimal.Decimal) bool {
	for _, opt := range s.rewards[treasureID] {
		if opt.Amount.GreaterThanOrEqual(min) {
			return true
		}
	}
	return false
}
