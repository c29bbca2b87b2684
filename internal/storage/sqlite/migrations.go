package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Reward amounts are stored as integer cents so min-reward comparisons stay exact.
const schema = `
CREATE TABLE IF NOT EXISTS treasures (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    latitude REAL NOT NULL CHECK (latitude BETWEEN -90 AND 90),
    longitude REAL NOT NULL CHECK (longitude BETWEEN -180 AND 180)
);

CREATE TABLE IF NOT EXISTS money_values (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    treasure_id INTEGER NOT NULL,
    amount_cents INTEGER NOT NULL CHECK (amount_cents >= 0),
    FOREIGN KEY (treasure_id) REFERENCES treasures(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_money_values_treasure_id ON money_values(treasure_id);
CREATE INDEX IF NOT EXISTS idx_treasures_lat_lng ON treasures(latitude, longitude);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
