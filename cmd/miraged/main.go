// ABOUTME: Entry point for miraged, the in-memory homeserver double
// ABOUTME: Serves the client-server API from process memory; state resets on restart

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/miragehq/mirage/internal/api"
	"github.com/miragehq/mirage/internal/config"
	"github.com/miragehq/mirage/internal/fixtures"
	"github.com/miragehq/mirage/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _
  _ __ ___ (_)_ __ __ _  __ _  ___
 | '_ ' _ \| | '__/ _' |/ _' |/ _ \
 | | | | | | | | | (_| | (_| |  __/
 |_| |_| |_|_|_|  \__,_|\__, |\___|
                        |___/
`

// getConfigPath returns the path to the miraged config file.
// Priority: MIRAGE_CONFIG env var > ./miraged.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MIRAGE_CONFIG"); envPath != "" {
		return envPath
	}
	return "miraged.yaml"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: miraged <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the homeserver double")
		fmt.Println("  version   Print the version")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("miraged %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func runServe() error {
	cfg := config.Default()
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	color.Cyan(banner)
	color.Green("miraged %s", version)
	color.Yellow("server name: %s", cfg.Server.Name)
	color.Yellow("listening:   http://%s", cfg.Server.HTTPAddr)
	fmt.Println()

	st := store.New()
	if cfg.Fixtures.Path != "" {
		seed, err := fixtures.Load(cfg.Fixtures.Path)
		if err != nil {
			return fmt.Errorf("loading fixtures: %w", err)
		}
		if err := fixtures.Apply(st, seed, cfg.Registration.DefaultRoomVersion); err != nil {
			return fmt.Errorf("applying fixtures: %w", err)
		}
		logger.Info("applied fixtures",
			"path", cfg.Fixtures.Path,
			"users", len(seed.Users),
			"rooms", len(seed.Rooms),
			"tags", len(seed.Tags))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	api.New(st, cfg, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: logRequests(logger, mux),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.HTTPAddr, "server_name", cfg.Server.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// logRequests wraps a handler with per-request structured logging.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
