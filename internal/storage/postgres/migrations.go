package postgres

import (
	"context"
	"database/sql"
)

// schema keeps coordinates as DOUBLE PRECISION and amounts as NUMERIC(15,2).
const schema = `
CREATE TABLE IF NOT EXISTS treasures (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    latitude DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
    longitude DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180)
);

CREATE TABLE IF NOT EXISTS money_values (
    id BIGSERIAL PRIMARY KEY,
    treasure_id BIGINT NOT NULL REFERENCES treasures(id) ON DELETE CASCADE,
    amt NUMERIC(15, 2) NOT NULL CHECK (amt >= 0)
);

CREATE INDEX IF NOT EXISTS idx_money_values_treasure_id ON money_values(treasure_id);
CREATE INDEX IF NOT EXISTS idx_treasures_lat_lng ON treasures(latitude, longitude);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
