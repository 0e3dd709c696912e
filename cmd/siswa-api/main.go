// main is the entry point of the Siswa API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open (and set up) the SQLite database
//  4. Prepare the photo upload directory
//  5. Build the service and the routing table
//  6. Start the HTTP server in a separate goroutine
//  7. Block until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/siswa-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/siswa-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aanand-mishra/siswa-api/internal/config"
	"github.com/aanand-mishra/siswa-api/internal/http/router"
	siswasvc "github.com/aanand-mishra/siswa-api/internal/service/siswa"
	"github.com/aanand-mishra/siswa-api/internal/storage/sqlite"
	"github.com/aanand-mishra/siswa-api/internal/upload"
)

const version = "1.0.0"

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Installed as the default so handlers can log through slog directly.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting siswa-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	storage, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	// ── 4. Initialise Photo Store ─────────────────────────────────────────
	photos, err := upload.New(cfg.Upload)
	if err != nil {
		log.Error("failed to initialise upload directory",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("upload directory ready",
		slog.String("dir", cfg.Upload.Dir),
		slog.Int64("max_size", cfg.Upload.MaxSize),
		slog.Any("allowed_extensions", cfg.Upload.AllowedExtensions))

	// ── 5. Service + Routes ───────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := router.New(router.Deps{
		Service:       siswasvc.New(storage, photos, log),
		DB:            storage,
		MaxUploadSize: cfg.Upload.MaxSize,
		Logger:        log,
		Registry:      registry,
		Version:       version,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe returns http.ErrServerClosed once Shutdown is called;
	// that is the expected path and not logged as an error.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
