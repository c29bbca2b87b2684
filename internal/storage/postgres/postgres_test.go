package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
)

// newTestStore connects to TEST_DATABASE_URL and starts from empty tables.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, Options{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "TRUNCATE treasures, money_values RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	center := &models.Treasure{ID: 1, Name: "Center", Latitude: 14.5995, Longitude: 120.9842}
	near := &models.Treasure{Name: "Near", Latitude: 14.6040, Longitude: 120.9842}
	far := &models.Treasure{Name: "Far", Latitude: 15.5, Longitude: 121.5}
	for _, tr := range []*models.Treasure{center, near, far} {
		if err := store.CreateTreasure(ctx, tr); err != nil {
			t.Fatalf("CreateTreasure failed: %v", err)
		}
	}
	if near.ID != 2 || far.ID != 3 {
		t.Fatalf("expected sequence ids 2 and 3, got %d and %d", near.ID, far.ID)
	}

	for _, opt := range []models.RewardOption{
		{TreasureID: center.ID, Amount: decimal.RequireFromString("10.00")},
		{TreasureID: near.ID, Amount: decimal.RequireFromString("20.00")},
		{TreasureID: near.ID, Amount: decimal.RequireFromString("30.00")},
	} {
		opt := opt
		if err := store.AddRewardOption(ctx, &opt); err != nil {
			t.Fatalf("AddRewardOption failed: %v", err)
		}
	}

	t.Run("GetTreasure", func(t *testing.T) {
		got, err := store.GetTreasure(ctx, near.ID)
		if err != nil {
			t.Fatalf("GetTreasure failed: %v", err)
		}
		if got.Name != "Near" {
			t.Errorf("Name mismatch: got %s, want Near", got.Name)
		}
		if _, err := store.GetTreasure(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddRewardOption for unknown treasure", func(t *testing.T) {
		err := store.AddRewardOption(ctx, &models.RewardOption{TreasureID: 999, Amount: decimal.NewFromInt(1)})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRewardOptions", func(t *testing.T) {
		opts, err := store.ListRewardOptions(ctx, near.ID)
		if err != nil {
			t.Fatalf("ListRewardOptions failed: %v", err)
		}
		if len(opts) != 2 || !opts[1].Amount.Equal(decimal.NewFromInt(30)) {
			t.Errorf("unexpected options: %+v", opts)
		}
	})

	t.Run("FindNearby", func(t *testing.T) {
		got, err := store.FindNearby(ctx, storage.NearbyFilter{Center: center.Point(), RadiusKm: 1})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != center.ID || got[1].ID != near.ID {
			t.Errorf("unexpected results: %+v", got)
		}

		min := decimal.NewFromInt(20)
		got, err = store.FindNearby(ctx, storage.NearbyFilter{Center: center.Point(), RadiusKm: 1, MinReward: &min})
		if err != nil {
			t.Fatalf("FindNearby failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != near.ID {
			t.Errorf("unexpected results with min reward: %+v", got)
		}
	})
}
