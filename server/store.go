package server

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a user or object does not exist
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when registering an email twice
	ErrUserExists = errors.New("user already registered")
)

// Row is one schemaless record. Numbers are json.Number.
type Row map[string]any

// ID returns the row's id column
func (r Row) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy
func (r Row) Clone() Row {
	return maps.Clone(r)
}

// User is an auth account
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Object is a stored file
type Object struct {
	Bucket      string
	Name        string
	ContentType string
	Data        []byte
	UpdatedAt   time.Time
}

// Store persists auth users, table rows and storage objects.
// Querying, policy and embedding live in the server; the store only keeps documents.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)

	// List returns every row of a table in insertion order
	List(ctx context.Context, table string) ([]Row, error)
	// Put inserts or replaces a row by id
	Put(ctx context.Context, table string, row Row) error
	Delete(ctx context.Context, table, id string) error

	PutObject(ctx context.Context, obj Object) error
	GetObject(ctx context.Context, bucket, name string) (Object, error)

	Close() error
}

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]User
	tables  map[string][]Row
	objects map[string]Object
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]User),
		tables:  make(map[string][]Row),
		objects: make(map[string]Object),
	}
}

// CreateUser adds a user; emails are unique case-insensitively
func (m *MemoryStore) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrUserExists
		}
	}
	u.Metadata = maps.Clone(u.Metadata)
	m.users[u.ID] = u
	return nil
}

// UserByEmail finds a user case-insensitively
func (m *MemoryStore) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// UserByID finds a user by id
func (m *MemoryStore) UserByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// List returns copies of a table's rows
func (m *MemoryStore) List(_ context.Context, table string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// Put upserts by id, keeping the original position on replace
func (m *MemoryStore) Put(_ context.Context, table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if i := slices.IndexFunc(rows, func(r Row) bool { return r.ID() == row.ID() }); i >= 0 {
		rows[i] = row.Clone()
		return nil
	}
	m.tables[table] = append(rows, row.Clone())
	return nil
}

// Delete removes a row by id
func (m *MemoryStore) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = slices.DeleteFunc(m.tables[table], func(r Row) bool { return r.ID() == id })
	return nil
}

// PutObject stores or replaces an object
func (m *MemoryStore) PutObject(_ context.Context, obj Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj.Data = slices.Clone(obj.Data)
	m.objects[obj.Bucket+"/"+obj.Name] = obj
	return nil
}

// GetObject fetches an object
func (m *MemoryStore) GetObject(_ context.Context, bucket, name string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+name]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
