package sqlite

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
	"github.com/mmynk/treasurehunt/internal/storage/memory"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "treasurehunt-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateTreasure assigns ID", func(t *testing.T) {
		tr := &models.Treasure{Name: "Plaza", Latitude: 14.5995, Longitude: 120.9842}
		if err := store.CreateTreasure(ctx, tr); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}
		if tr.ID == 0 {
			t.Error("Expected treasure ID to be assigned")
		}
	})

	t.Run("CreateTreasure keeps explicit ID", func(t *testing.T) {
		tr := &models.Treasure{ID: 100, Name: "T1", Latitude: 14.54376481, Longitude: 121.0199117}
		if err := store.CreateTreasure(ctx, tr); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}

		got, err := store.GetTreasure(ctx, 100)
		if err != nil {
			t.Fatalf("GetTreasure failed: %v", err)
		}
		if got.Name != "T1" {
			t.Errorf("Name mismatch: got %s, want T1", got.Name)
		}
		if got.Latitude != tr.Latitude || got.Longitude != tr.Longitude {
			t.Errorf("Coordinates mismatch: got (%f,%f), want (%f,%f)",
				got.Latitude, got.Longitude, tr.Latitude, tr.Longitude)
		}
	})

	t.Run("CreateTreasure rejects out of range coordinates", func(t *testing.T) {
		err := store.CreateTreasure(ctx, &models.Treasure{Name: "Bad", Latitude: 95, Longitude: 0})
		if err == nil {
			t.Error("Expected error for latitude 95, got nil")
		}
	})

	t.Run("GetTreasure returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetTreasure(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reward options round trip as cents", func(t *testing.T) {
		for _, amt := range []string{"15.00", "20.50", "0"} {
			opt := &models.RewardOption{TreasureID: 100, Amount: decimal.RequireFromString(amt)}
			if err := store.AddRewardOption(ctx, opt); err != nil {
				t.Fatalf("AddRewardOption failed: %v", err)
			}
			if opt.ID == 0 {
				t.Error("Expected reward option ID to be assigned")
			}
		}

		opts, err := store.ListRewardOptions(ctx, 100)
		if err != nil {
			t.Fatalf("ListRewardOptions failed: %v", err)
		}
		if len(opts) != 3 {
			t.Fatalf("Expected 3 options, got %d", len(opts))
		}
		if !opts[1].Amount.Equal(decimal.RequireFromString("20.50")) {
			t.Errorf("Amount mismatch: got %s, want 20.50", opts[1].Amount)
		}
	})

	t.Run("AddRewardOption for unknown treasure", func(t *testing.T) {
		err := store.AddRewardOption(ctx, &models.RewardOption{TreasureID: 4242, Amount: decimal.NewFromInt(1)})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRewardOptions for unknown treasure is empty", func(t *testing.T) {
		opts, err := store.ListRewardOptions(ctx, 4242)
		if err != nil {
			t.Fatalf("ListRewardOptions failed: %v", err)
		}
		if len(opts) != 0 {
			t.Errorf("Expected 0 options, got %d", len(opts))
		}
	})

	t.Run("DeleteTreasure cascades to reward options", func(t *testing.T) {
		if err := store.DeleteTreasure(ctx, 100); err != nil {
			t.Fatalf("DeleteTreasure failed: %v", err)
		}
		opts, err := store.ListRewardOptions(ctx, 100)
		if err != nil {
			t.Fatalf("ListRewardOptions failed: %v", err)
		}
		if len(opts) != 0 {
			t.Errorf("Expected cascade delete, still have %d options", len(opts))
		}
		if err := store.DeleteTreasure(ctx, 100); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestSQLiteStore_FindNearby(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, tr := range []models.Treasure{
		{ID: 1, Name: "Center", Latitude: 14.5995, Longitude: 120.9842},
		{ID: 2, Name: "Twin A", Latitude: 14.6040, Longitude: 120.9842},
		{ID: 3, Name: "Twin B", Latitude: 14.6040, Longitude: 120.9842},
		{ID: 4, Name: "Far", Latitude: 15.5, Longitude: 121.5},
	} {
		tr := tr
		if err := store.CreateTreasure(ctx, &tr); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}
	}
	for _, opt := range []models.RewardOption{
		{TreasureID: 1, Amount: decimal.NewFromInt(10)},
		{TreasureID: 2, Amount: decimal.NewFromInt(20)},
		{TreasureID: 2, Amount: decimal.NewFromInt(25)},
		{TreasureID: 2, Amount: decimal.NewFromInt(30)},
		{TreasureID: 3, Amount: decimal.NewFromInt(15)},
	} {
		opt := opt
		if err := store.AddRewardOption(ctx, &opt); err != nil {
			t.Fatalf("AddRewardOption failed: %v", err)
		}
	}
	center := models.Point{Lat: 14.5995, Lng: 120.9842}

	t.Run("orders by distance then id", func(t *testing.T) {
		got, err := store.FindNearby(ctx, storage.NearbyFilter{Center: center, RadiusKm: 1})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		ids := idsOf(got)
		want := []int64{1, 2, 3}
		if !equalIDs(ids, want) {
			t.Errorf("got ids %v, want %v", ids, want)
		}
		if got[0].DistanceKm > 1e-9 {
			t.Errorf("expected zero distance for center treasure, got %v", got[0].DistanceKm)
		}
	})

	t.Run("min reward deduplicates", func(t *testing.T) {
		min := decimal.NewFromInt(20)
		got, err := store.FindNearby(ctx, storage.NearbyFilter{Center: center, RadiusKm: 1, MinReward: &min})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		if !equalIDs(idsOf(got), []int64{2}) {
			t.Errorf("got ids %v, want [2]", idsOf(got))
		}
	})

	t.Run("fractional min reward rounds up to the next cent", func(t *testing.T) {
		min := decimal.RequireFromString("29.999")
		got, err := store.FindNearby(ctx, storage.NearbyFilter{Center: center, RadiusKm: 1, MinReward: &min})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		if !equalIDs(idsOf(got), []int64{2}) {
			t.Errorf("got ids %v, want [2]", idsOf(got))
		}
	})

	t.Run("no match returns empty slice", func(t *testing.T) {
		got, err := store.FindNearby(ctx, storage.NearbyFilter{Center: models.Point{Lat: -33.86, Lng: 151.2}, RadiusKm: 10})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})
}

// TestSQLiteStore_MatchesReference checks that the pushed-down SQL filter returns
// exactly what a haversine scan over every treasure returns.
func TestSQLiteStore_MatchesReference(t *testing.T) {
	store := newTestStore(t)
	ref := memory.New()
	ctx := context.Background()
	r := rand.New(rand.NewPCG(42, 1337))

	// Cluster treasures around a few hubs, including one near the antimeridian and one near a pole.
	hubs := []models.Point{{Lat: 14.5995, Lng: 120.9842}, {Lat: -0.5, Lng: 179.95}, {Lat: 89.9, Lng: 0}, {Lat: 51.5, Lng: -0.12}}
	for i := 0; i < 400; i++ {
		hub := hubs[i%len(hubs)]
		lat := math.Max(-90, math.Min(90, hub.Lat+(r.Float64()-0.5)*0.3))
		lng := hub.Lng + (r.Float64()-0.5)*0.3
		if lng > 180 {
			lng -= 360
		}
		tr := models.Treasure{ID: int64(i + 1), Name: "T", Latitude: lat, Longitude: lng}
		a, b := tr, tr
		if err := store.CreateTreasure(ctx, &a); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}
		if err := ref.CreateTreasure(ctx, &b); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}
		for j := 0; j < r.IntN(4); j++ {
			amt := decimal.NewFromInt(int64(5 * (1 + r.IntN(8))))
			if err := store.AddRewardOption(ctx, &models.RewardOption{TreasureID: tr.ID, Amount: amt}); err != nil {
				t.Fatalf("AddRewardOption failed: %v", err)
			}
			if err := ref.AddRewardOption(ctx, &models.RewardOption{TreasureID: tr.ID, Amount: amt}); err != nil {
				t.Fatalf("AddRewardOption failed: %v", err)
			}
		}
	}

	for i := 0; i < 200; i++ {
		hub := hubs[r.IntN(len(hubs))]
		filter := storage.NearbyFilter{
			Center:   models.Point{Lat: math.Max(-90, math.Min(90, hub.Lat+(r.Float64()-0.5)*0.2)), Lng: hub.Lng},
			RadiusKm: []float64{1, 10, 5, 20}[r.IntN(4)],
		}
		if r.IntN(2) == 0 {
			min := decimal.NewFromInt(int64(10 + r.IntN(21)))
			filter.MinReward = &min
		}

		got, err := store.FindNearby(ctx, filter)
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		want, err := ref.FindNearby(ctx, filter)
		if err != nil {
			t.Fatalf("reference FindNearby failed: %v", err)
		}
		if !equalIDs(idsOf(got), idsOf(want)) {
			t.Fatalf("filter %+v: sqlite ids %v, reference ids %v", filter, idsOf(got), idsOf(want))
		}
		for k := range got {
			if math.Abs(got[k].DistanceKm-want[k].DistanceKm) > 1e-9 {
				t.Fatalf("distance mismatch for id %d: %v vs %v", got[k].ID, got[k].DistanceKm, want[k].DistanceKm)
			}
		}
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		in        string
		cents     int64
		minCents  int64
		roundTrip string
	}{
		{"10", 1000, 1000, "10"},
		{"20.50", 2050, 2050, "20.5"},
		{"0.01", 1, 1, "0.01"},
		{"10.005", 1001, 1001, "10.01"},
		{"10.001", 1000, 1001, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			if got := toCents(d); got != tt.cents {
				t.Errorf("toCents(%s) = %d, want %d", tt.in, got, tt.cents)
			}
			if got := minCents(d); got != tt.minCents {
				t.Errorf("minCents(%s) = %d, want %d", tt.in, got, tt.minCents)
			}
			if got := fromCents(toCents(d)); !got.Equal(decimal.RequireFromString(tt.roundTrip)) {
				t.Errorf("fromCents(toCents(%s)) = %s, want %s", tt.in, got, tt.roundTrip)
			}
		})
	}
}

func idsOf(results []models.NearbyTreasure) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
