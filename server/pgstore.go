package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PGStore keeps rows as jsonb documents in PostgreSQL
type PGStore struct {
	db *sql.DB
}

// OpenPostgres connects and migrates
func OpenPostgres(dbURL string) (*PGStore, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &PGStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateUser inserts an auth user
func (s *PGStore) CreateUser(ctx context.Context, u User) error {
	meta, err := json.Marshal(u.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_users (id, email, password_hash, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, string(meta), u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	return err
}

func (s *PGStore) scanUser(row *sql.Row) (User, error) {
	var u User
	var meta []byte
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &meta, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &u.Metadata); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

// UserByEmail finds a user case-insensitively
func (s *PGStore) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, metadata, created_at
		FROM auth_users WHERE lower(email) = lower($1)`, email))
}

// UserByID finds a user by id
func (s *PGStore) UserByID(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, metadata, created_at
		FROM auth_users WHERE id = $1`, id))
}

// List returns every row of a table in insertion order
func (s *PGStore) List(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM documents WHERE tbl = $1 ORDER BY seq ASC`, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Row
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var r Row
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Put upserts a row by id
func (s *PGStore) Put(ctx context.Context, table string, row Row) error {
	body, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (tbl, id, body) VALUES ($1, $2, $3)
		ON CONFLICT (tbl, id) DO UPDATE SET body = excluded.body, updated_at = NOW()`,
		table, row.ID(), string(body),
	)
	return err
}

// Delete removes a row
func (s *PGStore) Delete(ctx context.Context, table, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE tbl = $1 AND id = $2`, table, id)
	return err
}

// PutObject upserts a storage object
func (s *PGStore) PutObject(ctx context.Context, obj Object) error {
	if obj.UpdatedAt.IsZero() {
		obj.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (bucket, name, content_type, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bucket, name) DO UPDATE
		SET content_type = excluded.content_type, data = excluded.data, updated_at = excluded.updated_at`,
		obj.Bucket, obj.Name, obj.ContentType, obj.Data, obj.UpdatedAt,
	)
	return err
}

// GetObject fetches a storage object
func (s *PGStore) GetObject(ctx context.Context, bucket, name string) (Object, error) {
	obj := Object{Bucket: bucket, Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT content_type, data, updated_at FROM objects WHERE bucket = $1 AND name = $2`,
		bucket, name,
	).Scan(&obj.ContentType, &obj.Data, &obj.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	return obj, err
}

// Close closes the database connection
func (s *PGStore) Close() error {
	return s.db.Close()
}
