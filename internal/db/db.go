package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/edugo/internal/config"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoState is returned when a state key is not set
var ErrNoState = errors.New("state key not set")

// DB wraps the local SQLite database connection
type DB struct {
	*sql.DB
}

// DefaultDBPath returns the default database path (~/.edugo/edugo.db)
func DefaultDBPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(dir, "edugo.db"), nil
}

// Open opens or creates the SQLite database
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps :memory: databases coherent and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB}
	if err := db.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// OpenDefault opens the database at the default path
func OpenDefault() (*DB, error) {
	path, err := DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// GetState reads a single key from the state table
func (db *DB) GetState(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return "", ErrNoState
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value.String, nil
}

// SetStates writes all pairs in one transaction
func (db *DB) SetStates(ctx context.Context, pairs map[string]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return fmt.Errorf("failed to write state %q: %w", k, err)
		}
	}

	return tx.Commit()
}

// DeleteStates removes keys in one transaction
func (db *DB) DeleteStates(ctx context.Context, keys ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, k); err != nil {
			return fmt.Errorf("failed to delete state %q: %w", k, err)
		}
	}

	return tx.Commit()
}

// Receipt is a locally recorded purchase notice
type Receipt struct {
	ID          string
	CourseID    string
	CourseTitle string
	Price       string
	CreatedAt   time.Time
}

// AddReceipt stores a purchase notice and returns it with id and timestamp filled in
func (db *DB) AddReceipt(ctx context.Context, courseID, courseTitle, price string) (Receipt, error) {
	r := Receipt{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		CourseTitle: courseTitle,
		Price:       price,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO receipts (id, course_id, course_title, price, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.CourseID, r.CourseTitle, r.Price, r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to insert receipt: %w", err)
	}
	return r, nil
}

// ListReceipts returns receipts newest first
func (db *DB) ListReceipts(ctx context.Context) ([]Receipt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, course_id, course_title, price, created_at
		FROM receipts ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var receipts []Receipt
	for rows.Next() {
		var r Receipt
		var created string
		if err := rows.Scan(&r.ID, &r.CourseID, &r.CourseTitle, &r.Price, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
