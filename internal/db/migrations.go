package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateState,
		migrationCreateReceipts,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateState = `
CREATE TABLE IF NOT EXISTS state (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at TEXT NOT NULL
);
`

const migrationCreateReceipts = `
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    course_id TEXT NOT NULL,
    course_title TEXT NOT NULL,
    price TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at);
`
