package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/existflow/edugo/internal/account"
	"github.com/existflow/edugo/internal/config"
	"github.com/existflow/edugo/internal/db"
	"github.com/existflow/edugo/internal/gateway"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/notify"
	"github.com/existflow/edugo/internal/session"
)

// cfg is loaded once per invocation by the root command
var cfg *config.Config

// app bundles everything a command needs to talk to the backend
type app struct {
	db       *db.DB
	sessions *session.Store
	gw       *gateway.Client
	accounts *account.Service
	notifier notify.Notifier
}

func openApp(ctx context.Context) (*app, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	database, err := db.OpenDefault()
	if err != nil {
		logger.Error("Failed to open database", logger.F("error", err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sessions, err := session.Open(ctx, session.NewDBPersister(database))
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.ServerURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout(),
	})
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	return &app{
		db:       database,
		sessions: sessions,
		gw:       gw,
		accounts: account.New(gw, sessions),
		notifier: notify.Multi{notify.LogNotifier{}, notify.NewReceiptNotifier(database, os.Stdout)},
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

// requireSession returns the active session or a hint to log in
func (a *app) requireSession() (session.Session, error) {
	sess, err := a.sessions.Require()
	if errors.Is(err, session.ErrNoSession) {
		return session.Session{}, fmt.Errorf("not logged in, run 'edugo auth login' first")
	}
	return sess, err
}

// withApp opens the app for the duration of fn
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// describeError unwraps backend errors into their human message
func describeError(err error) string {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	return err.Error()
}

// sessionExpired reports whether the backend rejected the stored credential
func sessionExpired(err error) bool {
	var httpErr *gateway.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}
