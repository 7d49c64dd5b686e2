package session

import (
	"context"
	"errors"
	"sync"

	"github.com/existflow/edugo/internal/db"
)

// Keys used in the local state table
const (
	KeyCredential = "session.token"
	KeySubjectID  = "session.user_id"
)

// Persister is the durable copy of the session
type Persister interface {
	// Load returns the stored session; ok is false when nothing complete is stored
	Load(ctx context.Context) (s Session, ok bool, err error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// DBPersister keeps the session in the local sqlite state table
type DBPersister struct {
	db *db.DB
}

// NewDBPersister creates a persister over an open database
func NewDBPersister(database *db.DB) *DBPersister {
	return &DBPersister{db: database}
}

// Load reads both keys. A partially stored session counts as absent.
func (p *DBPersister) Load(ctx context.Context) (Session, bool, error) {
	token, err := p.db.GetState(ctx, KeyCredential)
	if errors.Is(err, db.ErrNoState) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}

	subject, err := p.db.GetState(ctx, KeySubjectID)
	if errors.Is(err, db.ErrNoState) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}

	s, err := New(token, subject)
	if err != nil {
		return Session{}, false, nil
	}
	return s, true, nil
}

// Save writes both keys in one transaction
func (p *DBPersister) Save(ctx context.Context, s Session) error {
	return p.db.SetStates(ctx, map[string]string{
		KeyCredential: s.Credential,
		KeySubjectID:  s.SubjectID,
	})
}

// Clear removes both keys in one transaction
func (p *DBPersister) Clear(ctx context.Context) error {
	return p.db.DeleteStates(ctx, KeyCredential, KeySubjectID)
}

// MemoryPersister is a process-local persister
type MemoryPersister struct {
	mu sync.Mutex
	s  Session
	// SaveErr, when set, is returned by Save
	SaveErr error
}

// Load returns the stored session
func (m *MemoryPersister) Load(context.Context) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, m.s.Valid(), nil
}

// Save stores s
func (m *MemoryPersister) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.s = s
	return nil
}

// Clear forgets the stored session
func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = Session{}
	return nil
}
