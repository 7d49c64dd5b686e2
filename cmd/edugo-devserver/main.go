package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/edugo/internal/config"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "edugo-devserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(logger.Config{
		Level:   logger.ParseLevel(getEnv("EDUGO_LOG_LEVEL", "INFO")),
		Console: true,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Close()
	}()

	port := getEnv("PORT", "8080")

	var store server.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := server.OpenPostgres(dbURL)
		if err != nil {
			return fmt.Errorf("failed to open postgres: %w", err)
		}
		store = pg
		logger.Info("Using postgres store")
	} else {
		store = server.NewMemoryStore()
		logger.Info("Using in-memory store, data is lost on exit")
	}

	srv, err := server.New(store, server.Config{
		APIKey:    getEnv("EDUGO_API_KEY", config.DefaultAPIKey),
		JWTSecret: []byte(getEnv("EDUGO_JWT_SECRET", "edugo-dev-secret")),
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("Error closing store", logger.F("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if getEnv("EDUGO_SEED", "true") == "true" {
		if err := srv.Seed(ctx); errors.Is(err, server.ErrUserExists) {
			logger.Info("Seed data already present")
		} else if err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		} else {
			logger.Info("Seeded demo data",
				logger.F("student", server.DemoStudentEmail),
				logger.F("instructor", server.DemoInstructorEmail))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("EduGo dev backend starting", logger.F("port", port))
		errCh <- srv.Start(":" + port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
