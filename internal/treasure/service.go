// Package treasure implements proximity search and collection of treasures.
package treasure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/geo"
	"github.com/mmynk/treasurehunt/internal/ledger"
	"github.com/mmynk/treasurehunt/internal/metrics"
	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
)

// MaxCollectDistanceMeters is how close a player must be to collect a treasure.
const MaxCollectDistanceMeters = 50

// Random picks reward options. Implementations must be safe for concurrent use.
type Random interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

// globalRandom uses the goroutine-safe top-level math/rand/v2 source.
type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// NearbyQuery describes a proximity search.
type NearbyQuery struct {
	Center   models.Point
	RadiusKm float64
	// MinReward, when set, requires at least one reward option >= MinReward.
	MinReward *decimal.Decimal
}

// CollectRequest is a player's attempt to collect a treasure from where they stand.
type CollectRequest struct {
	UserID     string
	TreasureID int64
	Position   models.Point
}

// Collection is the result of a successful collection.
type Collection struct {
	CollectionID string
	TreasureID   int64
	Reward       decimal.Decimal
	NewTotal     decimal.Decimal
	// DistanceMeters is the unrounded distance at collection time.
	DistanceMeters float64
}

// Service runs searches and adjudicates collection attempts.
type Service struct {
	store  storage.TreasureStore
	ledger ledger.Ledger
	random Random
}

// Option configures a Service.
type Option func(*Service)

// WithRandom overrides the reward picker, e.g. with a fixed sequence in tests.
func WithRandom(r Random) Option {
	return func(s *Service) { s.random = r }
}

// NewService creates a Service backed by the given store and ledger.
func NewService(store storage.TreasureStore, l ledger.Ledger, opts ...Option) *Service {
	s := &Service{store: store, ledger: l, random: globalRandom{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindNearby returns treasures within q.RadiusKm of q.Center, closest first with ties
// broken by ID. Whatever the store returns is re-checked against geo.DistanceKm and
// de-duplicated, so the result never depends on how the store filtered.
func (s *Service) FindNearby(ctx context.Context, q NearbyQuery) ([]models.NearbyTreasure, error) {
	if math.IsNaN(q.RadiusKm) || q.RadiusKm < 0 {
		return nil, fmt.Errorf("%w: radius must be a non-negative number", ErrInvalidInput)
	}
	if !finite(q.Center) {
		return nil, fmt.Errorf("%w: center must have finite coordinates", ErrInvalidInput)
	}

	start := time.Now()
	candidates, err := s.store.FindNearby(ctx, storage.NearbyFilter{
		Center:    q.Center,
		RadiusKm:  q.RadiusKm,
		MinReward: q.MinReward,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby treasures: %w", err)
	}

	seen := make(map[int64]bool, len(candidates))
	results := make([]models.NearbyTreasure, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		d := geo.Distance(q.Center, c.Point())
		if !(d <= q.RadiusKm) {
			continue
		}
		seen[c.ID] = true
		c.DistanceKm = d
		results = append(results, c)
	}
	storage.SortNearby(results)

	metrics.SearchesTotal.Inc()
	metrics.SearchResults.Observe(float64(len(results)))
	metrics.SearchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	slog.Debug("Nearby search",
		"cell", geo.Geohash(q.Center.Lat, q.Center.Lng, 6),
		"radius_km", q.RadiusKm,
		"min_reward", q.MinReward,
		"results", len(results),
	)

	return results, nil
}

// Collect adjudicates a collection attempt. The outcomes are checked in order:
// ErrTreasureNotFound, *TooFarError, ErrNoRewards, then success. Only success
// credits the ledger; the reward is drawn uniformly from all options on every call.
func (s *Service) Collect(ctx context.Context, req CollectRequest) (*Collection, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if req.TreasureID <= 0 {
		return nil, fmt.Errorf("%w: treasure id must be positive", ErrInvalidInput)
	}
	if !finite(req.Position) {
		return nil, fmt.Errorf("%w: position must have finite coordinates", ErrInvalidInput)
	}

	t, err := s.store.GetTreasure(ctx, req.TreasureID)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, fmt.Errorf("%w: %d", ErrTreasureNotFound, req.TreasureID)
	}
	if err != nil {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to get treasure: %w", err)
	}

	distance := geo.DistanceMeters(req.Position, t.Point())
	if !withinCollectRange(distance) {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeTooFar).Inc()
		return nil, &TooFarError{DistanceMeters: int64(math.Round(distance)), Treasure: *t}
	}

	options, err := s.store.ListRewardOptions(ctx, t.ID)
	if err != nil {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to list reward options: %w", err)
	}
	if len(options) == 0 {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeNoRewards).Inc()
		return nil, fmt.Errorf("%w: %d", ErrNoRewards, t.ID)
	}

	i := s.random.IntN(len(options))
	if i < 0 || i >= len(options) {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("random index %d out of range [0,%d)", i, len(options))
	}
	reward := options[i].Amount

	total, err := s.ledger.Credit(ctx, req.UserID, reward)
	if err != nil {
		metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to credit reward: %w", err)
	}

	c := &Collection{
		CollectionID:   uuid.NewString(),
		TreasureID:     t.ID,
		Reward:         reward,
		NewTotal:       total,
		DistanceMeters: distance,
	}

	metrics.CollectionsTotal.WithLabelValues(metrics.OutcomeCollected).Inc()
	metrics.RewardsCreditedTotal.Add(reward.InexactFloat64())
	slog.Info("Treasure collected",
		"collection_id", c.CollectionID,
		"user_id", req.UserID,
		"treasure_id", t.ID,
		"reward", reward.StringFixed(2),
		"total", total.StringFixed(2),
	)

	return c, nil
}

// withinCollectRange reports whether a distance in meters passes the collection gate.
// The limit is inclusive and NaN never passes.
func withinCollectRange(meters float64) bool {
	return meters <= MaxCollectDistanceMeters
}

func finite(p models.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Balance returns the user's accumulated rewards, zero for a user who never collected.
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	bal, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return bal, nil
}
