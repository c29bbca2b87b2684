// Package postgres provides a PostgreSQL-backed implementation of storage.TreasureStore.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/mmynk/treasurehunt/internal/geo"
	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
)

// Ensure PostgresStore implements the storage interfaces
var (
	_ storage.TreasureStore  = (*PostgresStore)(nil)
	_ storage.TreasureWriter = (*PostgresStore)(nil)
)

// radiusSlackKm widens the SQL radius test so floating point differences between
// Postgres and geo.DistanceKm never drop a row; the exact test runs in Go afterwards.
const radiusSlackKm = 1e-6

// haversineSQL computes the same formula as geo.DistanceKm; $1/$2 are the center.
const haversineSQL = `(2 * 6371.0 * asin(least(1.0, sqrt(
        power(sin(radians(t.latitude - $1) / 2), 2) +
        cos(radians($1)) * cos(radians(t.latitude)) *
        power(sin(radians(t.longitude - $2) / 2), 2)
    ))))`

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	// PingAttempts is how many times New waits for the database to come up.
	PingAttempts int
}

// PostgresStore implements storage.TreasureStore using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New opens a PostgreSQL connection, waits for it to answer and runs migrations.
func New(ctx context.Context, dsn string, opts Options) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	attempts := opts.PingAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		slog.Warn("Waiting for database", "attempt", i+1, "max_attempts", attempts, "error", err)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateTreasure inserts a treasure, letting the sequence assign the ID when it is zero.
func (s *PostgresStore) CreateTreasure(ctx context.Context, treasure *models.Treasure) error {
	if treasure.ID == 0 {
		err := s.db.QueryRowContext(ctx,
			"INSERT INTO treasures (name, latitude, longitude) VALUES ($1, $2, $3) RETURNING id",
			treasure.Name, treasure.Latitude, treasure.Longitude,
		).Scan(&treasure.ID)
		if err != nil {
			return fmt.Errorf("failed to insert treasure: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO treasures (id, name, latitude, longitude) VALUES ($1, $2, $3, $4)",
		treasure.ID, treasure.Name, treasure.Latitude, treasure.Longitude,
	)
	if err != nil {
		return fmt.Errorf("failed to insert treasure: %w", err)
	}
	// Keep the sequence ahead of explicit IDs
	_, err = s.db.ExecContext(ctx,
		"SELECT setval(pg_get_serial_sequence('treasures', 'id'), GREATEST((SELECT MAX(id) FROM treasures), 1))",
	)
	if err != nil {
		return fmt.Errorf("failed to advance treasure sequence: %w", err)
	}
	return nil
}

// AddRewardOption inserts a reward option for an existing treasure.
func (s *PostgresStore) AddRewardOption(ctx context.Context, option *models.RewardOption) error {
	if option.Amount.IsNegative() {
		return fmt.Errorf("reward amount must be non-negative: %s", option.Amount)
	}

	err := s.db.QueryRowContext(ctx,
		"INSERT INTO money_values (treasure_id, amt) VALUES ($1, $2) RETURNING id",
		option.TreasureID, option.Amount.StringFixed(2),
	).Scan(&option.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("treasure %d: %w", option.TreasureID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert reward option: %w", err)
	}
	return nil
}

// GetTreasure retrieves a treasure by ID.
func (s *PostgresStore) GetTreasure(ctx context.Context, id int64) (*models.Treasure, error) {
	t := &models.Treasure{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, latitude, longitude FROM treasures WHERE id = $1",
		id,
	).Scan(&t.ID, &t.Name, &t.Latitude, &t.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("treasure %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treasure: %w", err)
	}
	return t, nil
}

// ListRewardOptions returns every reward option of a treasure, ordered by ID.
func (s *PostgresStore) ListRewardOptions(ctx context.Context, treasureID int64) ([]models.RewardOption, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, treasure_id, amt FROM money_values WHERE treasure_id = $1 ORDER BY id",
		treasureID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward options: %w", err)
	}
	defer rows.Close()

	options := make([]models.RewardOption, 0)
	for rows.Next() {
		var opt models.RewardOption
		if err := rows.Scan(&opt.ID, &opt.TreasureID, &opt.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan reward option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reward options: %w", err)
	}

	return options, nil
}

// FindNearby pushes a bounding box and the haversine test into SQL, then re-checks
// every row with geo.DistanceKm so results match the in-memory reference exactly.
func (s *PostgresStore) FindNearby(ctx context.Context, filter storage.NearbyFilter) ([]models.NearbyTreasure, error) {
	box := geo.BoundingBox(filter.Center, filter.RadiusKm)

	// A NULL min reward disables the EXISTS clause
	var minReward any
	if filter.MinReward != nil {
		minReward = filter.MinReward.String()
	}

	query := `
		SELECT t.id, t.name, t.latitude, t.longitude
		FROM treasures t
		WHERE t.latitude BETWEEN $3 AND $4
		  AND t.longitude BETWEEN $5 AND $6
		  AND ` + haversineSQL + ` <= $7
		  AND ($8::numeric IS NULL OR EXISTS (
		      SELECT 1 FROM money_values mv
		      WHERE mv.treasure_id = t.id AND mv.amt >= $8::numeric
		  ))`

	rows, err := s.db.QueryContext(ctx, query,
		filter.Center.Lat, filter.Center.Lng,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
		filter.RadiusKm+radiusSlackKm, minReward,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby treasures: %w", err)
	}
	defer rows.Close()

	results := make([]models.NearbyTreasure, 0)
	for rows.Next() {
		var t models.Treasure
		if err := rows.Scan(&t.ID, &t.Name, &t.Latitude, &t.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan nearby treasure: %w", err)
		}
		d := geo.Distance(filter.Center, t.Point())
		if d > filter.RadiusKm {
			continue
		}
		results = append(results, models.NearbyTreasure{Treasure: t, DistanceKm: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nearby treasures: %w", err)
	}

	storage.SortNearby(results)
	return results, nil
}
