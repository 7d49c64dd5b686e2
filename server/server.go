// Package server is a development backend that speaks the REST, auth and
// storage dialect the edugo client expects.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/edugo/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config configures the backend
type Config struct {
	// APIKey is the static service key every request must carry
	APIKey string
	// JWTSecret signs access tokens
	JWTSecret []byte
	// TokenTTL is the access token lifetime
	TokenTTL time.Duration
	// Quiet disables the console request log
	Quiet bool
}

// Server is the development backend
type Server struct {
	store  Store
	config Config
	echo   *echo.Echo

	// writeMu serializes read-check-write sequences on tables
	writeMu sync.Mutex
	clockMu sync.Mutex
	lastTS  time.Time
}

// New creates a server over store
func New(store Store, cfg Config) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("server: api key is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("server: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	s := &Server{store: store, config: cfg}
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Debug("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("remote", req.RemoteAddr))

			err := next(c)

			res := c.Response()
			duration := time.Since(start)

			logger.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", duration.String()))

			if !s.config.Quiet {
				fmt.Printf("REQUEST: %s %s  status=%d  size=%d  duration=%s\n",
					req.Method, req.RequestURI, res.Status, res.Size, duration)
			}

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders: []string{"*"},
	}))

	e.GET("/health", s.handleHealth)

	// Public storage reads need no key
	e.GET("/storage/v1/object/public/:bucket/*", s.handlePublicObject)

	keyed := e.Group("", s.apiKeyMiddleware, s.identityMiddleware)

	auth := keyed.Group("/auth/v1")
	auth.POST("/signup", s.handleSignUp)
	auth.POST("/token", s.handleToken)
	auth.GET("/user", s.handleUser, s.requireUser)

	rest := keyed.Group("/rest/v1")
	rest.GET("/:table", s.handleSelect)
	rest.POST("/:table", s.handleInsert)
	rest.PATCH("/:table", s.handleUpdate)
	rest.DELETE("/:table", s.handleDelete)

	storage := keyed.Group("/storage/v1/object", s.requireUser)
	storage.POST("/:bucket/*", s.handleUpload)
	storage.PUT("/:bucket/*", s.handleUpload)

	s.echo = e
}

// Close closes the store
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// timestampLayout sorts lexically in time order
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// now returns a strictly increasing UTC timestamp for created_at columns
func (s *Server) now() string {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(s.lastTS) {
		t = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = t
	return t.Format(timestampLayout)
}
