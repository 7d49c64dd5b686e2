package cli

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/existflow/edugo/internal/config"
	"github.com/existflow/edugo/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeError(t *testing.T) {
	httpErr := &gateway.HTTPError{Op: "enroll", StatusCode: http.StatusForbidden, Body: "new row violates row-level security policy"}
	assert.Equal(t, "new row violates row-level security policy", describeError(fmt.Errorf("wrapped: %w", httpErr)))
	assert.Equal(t, "Forbidden", describeError(&gateway.HTTPError{StatusCode: http.StatusForbidden}))
	assert.Equal(t, "boom", describeError(errors.New("boom")))
}

func TestSessionExpired(t *testing.T) {
	assert.True(t, sessionExpired(fmt.Errorf("current user: %w", &gateway.HTTPError{StatusCode: http.StatusUnauthorized})))
	assert.False(t, sessionExpired(&gateway.HTTPError{StatusCode: http.StatusForbidden}))
	assert.False(t, sessionExpired(errors.New("dial tcp: refused")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Intro", truncate("Intro", 10))
	assert.Equal(t, "Artes y d…", truncate("Artes y diseño", 10))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "******", maskKey("short"))
	assert.Equal(t, "edu…key", maskKey(config.DefaultAPIKey))
}

func TestConfigSet(t *testing.T) {
	t.Setenv("EDUGO_HOME", t.TempDir())
	cfg = config.DefaultConfig()

	require.NoError(t, runConfigSet(nil, []string{"server_url", "http://example.test"}))
	require.NoError(t, runConfigSet(nil, []string{"refresh_seconds", "0"}))

	saved, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", saved.ServerURL)
	assert.Equal(t, 0, saved.RefreshSeconds)

	assert.Error(t, runConfigSet(nil, []string{"timeout_seconds", "-1"}))
	assert.Error(t, runConfigSet(nil, []string{"nope", "x"}))
	assert.Error(t, runConfigSet(nil, []string{"server_url", ""}))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"auth", "login"},
		{"courses", "show"},
		{"cards", "add"},
		{"favorites", "toggle"},
		{"profile", "avatar"},
		{"buy"},
		{"play"},
		{"receipts"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
