package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/existflow/edugo/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsPartial(t *testing.T) {
	_, err := New("tok", "")
	assert.ErrorIs(t, err, ErrIncomplete)
	_, err = New("  ", "u1")
	assert.ErrorIs(t, err, ErrIncomplete)

	s, err := New("tok", "u1")
	require.NoError(t, err)
	assert.True(t, s.Valid())
}

func TestNewKeepsValuesVerbatim(t *testing.T) {
	s, err := New(" tok ", "u1\n")
	require.NoError(t, err)
	assert.Equal(t, Session{Credential: " tok ", SubjectID: "u1\n"}, s)

	_, err = New("tok", "\t")
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	p := &MemoryPersister{}
	st, err := Open(ctx, p)
	require.NoError(t, err)

	_, ok := st.Current()
	assert.False(t, ok)
	_, err = st.Require()
	assert.ErrorIs(t, err, ErrNoSession)

	s, _ := New("T", "U")
	require.NoError(t, st.Login(ctx, s))

	got, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, "T", got.Credential)
	assert.Equal(t, "U", got.SubjectID)

	persisted, ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, persisted)

	require.NoError(t, st.Logout(ctx))
	_, ok = st.Current()
	assert.False(t, ok)
	_, ok, _ = p.Load(ctx)
	assert.False(t, ok)
}

func TestLoginRejectsIncomplete(t *testing.T) {
	st, err := Open(context.Background(), &MemoryPersister{})
	require.NoError(t, err)
	assert.ErrorIs(t, st.Login(context.Background(), Session{Credential: "T"}), ErrIncomplete)
}

func TestLoginPersistFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	p := &MemoryPersister{}
	st, err := Open(ctx, p)
	require.NoError(t, err)

	p.SaveErr = errors.New("disk full")
	s, _ := New("T", "U")
	assert.Error(t, st.Login(ctx, s))

	_, ok := st.Current()
	assert.False(t, ok)
}

func TestOpenRestoresFromSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "edugo.db"))
	require.NoError(t, err)
	defer database.Close()

	first, err := Open(ctx, NewDBPersister(database))
	require.NoError(t, err)
	s, _ := New("T", "U")
	require.NoError(t, first.Login(ctx, s))

	second, err := Open(ctx, NewDBPersister(database))
	require.NoError(t, err)
	got, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, s, got)

	require.NoError(t, second.Logout(ctx))
	third, err := Open(ctx, NewDBPersister(database))
	require.NoError(t, err)
	_, ok = third.Current()
	assert.False(t, ok)
}

func TestOpenIgnoresHalfPersisted(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "edugo.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.SetStates(ctx, map[string]string{KeyCredential: "T"}))

	st, err := Open(ctx, NewDBPersister(database))
	require.NoError(t, err)
	_, ok := st.Current()
	assert.False(t, ok)
}

func TestWatchDeliversLatest(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, &MemoryPersister{})
	require.NoError(t, err)

	ch, cancel := st.Watch()
	defer cancel()

	a, _ := New("A", "U")
	b, _ := New("B", "U")
	require.NoError(t, st.Login(ctx, a))
	require.NoError(t, st.Login(ctx, b))

	got := <-ch
	assert.Equal(t, "B", got.Credential)

	require.NoError(t, st.Logout(ctx))
	got = <-ch
	assert.False(t, got.Valid())
}
