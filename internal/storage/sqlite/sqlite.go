// Package sqlite provides a SQLite-backed implementation of the storage.TreasureStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/treasurehunt/internal/geo"
	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/storage"
)

// Ensure SQLiteStore implements the storage interfaces
var (
	_ storage.TreasureStore  = (*SQLiteStore)(nil)
	_ storage.TreasureWriter = (*SQLiteStore)(nil)
)

// distanceFunc is the SQL name of geo.DistanceKm inside every connection.
const distanceFunc = "haversine_km"

var registerOnce sync.Once
var registerErr error

// registerFunctions makes geo.DistanceKm callable from SQL so the radius filter runs
// in the query with exactly the same arithmetic as the in-memory reference.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = msqlite.RegisterDeterministicScalarFunction(distanceFunc, 4,
			func(ctx *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				var f [4]float64
				for i, arg := range args {
					v, err := toFloat(arg)
					if err != nil {
						return nil, fmt.Errorf("%s argument %d: %w", distanceFunc, i+1, err)
					}
					f[i] = v
				}
				return geo.DistanceKm(f[0], f[1], f[2], f[3]), nil
			})
	})
	return registerErr
}

func toFloat(v driver.Value) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// SQLiteStore implements storage.TreasureStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
// The special path ":memory:" opens a private in-memory database.
func New(dbPath string) (*SQLiteStore, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("failed to register sql functions: %w", err)
	}

	inMemory := dbPath == ":memory:"
	if !inMemory {
		// Create parent directory if it doesn't exist
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTreasure inserts a treasure. When treasure.ID is zero SQLite assigns one.
func (s *SQLiteStore) CreateTreasure(ctx context.Context, treasure *models.Treasure) error {
	var id any
	if treasure.ID != 0 {
		id = treasure.ID
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO treasures (id, name, latitude, longitude) VALUES (?, ?, ?, ?)",
		id, treasure.Name, treasure.Latitude, treasure.Longitude,
	)
	if err != nil {
		return fmt.Errorf("failed to insert treasure: %w", err)
	}

	if treasure.ID == 0 {
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read treasure id: %w", err)
		}
		treasure.ID = newID
	}
	return nil
}

// AddRewardOption inserts a reward option for an existing treasure.
func (s *SQLiteStore) AddRewardOption(ctx context.Context, option *models.RewardOption) error {
	if option.Amount.IsNegative() {
		return fmt.Errorf("reward amount must be non-negative: %s", option.Amount)
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM treasures WHERE id = ?", option.TreasureID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("treasure %d: %w", option.TreasureID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check treasure existence: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO money_values (treasure_id, amount_cents) VALUES (?, ?)",
		option.TreasureID, toCents(option.Amount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reward option: %w", err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read reward option id: %w", err)
	}
	option.ID = newID
	return nil
}

// DeleteTreasure removes a treasure; its reward options go with it via ON DELETE CASCADE.
func (s *SQLiteStore) DeleteTreasure(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM treasures WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete treasure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete treasure: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("treasure %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// GetTreasure retrieves a treasure by ID.
func (s *SQLiteStore) GetTreasure(ctx context.Context, id int64) (*models.Treasure, error) {
	t := &models.Treasure{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, latitude, longitude FROM treasures WHERE id = ?",
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
func (s *SQLiteStore) ListRewardOptions(ctx context.Context, treasureID int64) ([]models.RewardOption, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, treasure_id, amount_cents FROM money_values WHERE treasure_id = ? ORDER BY id",
		treasureID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward options: %w", err)
	}
	defer rows.Close()

	options := make([]models.RewardOption, 0)
	for rows.Next() {
		var opt models.RewardOption
		var cents int64
		if err := rows.Scan(&opt.ID, &opt.TreasureID, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan reward option: %w", err)
		}
		opt.Amount = fromCents(cents)
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reward options: %w", err)
	}

	return options, nil
}

// FindNearby runs the radius filter inside SQLite. A bounding box narrows the scan
// through idx_treasures_lat_lng before haversine_km decides membership.
func (s *SQLiteStore) FindNearby(ctx context.Context, filter storage.NearbyFilter) ([]models.NearbyTreasure, error) {
	box := geo.BoundingBox(filter.Center, filter.RadiusKm)
	lat, lng := filter.Center.Lat, filter.Center.Lng

	var q strings.Builder
	q.WriteString(`
		SELECT t.id, t.name, t.latitude, t.longitude,
		       ` + distanceFunc + `(?, ?, t.latitude, t.longitude) AS distance
		FROM treasures t
		WHERE t.latitude BETWEEN ? AND ?
		  AND t.longitude BETWEEN ? AND ?
		  AND ` + distanceFunc + `(?, ?, t.latitude, t.longitude) <= ?`)
	args := []any{lat, lng, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, lat, lng, filter.RadiusKm}

	if filter.MinReward != nil {
		// EXISTS keeps each treasure once no matter how many rewards qualify
		q.WriteString(`
		  AND EXISTS (
		      SELECT 1 FROM money_values mv
		      WHERE mv.treasure_id = t.id AND mv.amount_cents >= ?
		  )`)
		args = append(args, minCents(*filter.MinReward))
	}
	q.WriteString(`
		ORDER BY distance ASC, t.id ASC`)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby treasures: %w", err)
	}
	defer rows.Close()

	results := make([]models.NearbyTreasure, 0)
	for rows.Next() {
		var nt models.NearbyTreasure
		if err := rows.Scan(&nt.ID, &nt.Name, &nt.Latitude, &nt.Longitude, &nt.DistanceKm); err != nil {
			return nil, fmt.Errorf("failed to scan nearby treasure: %w", err)
		}
		results = append(results, nt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nearby treasures: %w", err)
	}

	return results, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// minCents converts a minimum amount to the smallest qualifying cent value.
func minCents(d decimal.Decimal) int64 {
	return d.Shift(2).Ceil().IntPart()
}
