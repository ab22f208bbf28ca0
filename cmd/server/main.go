package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/dmukit/internal/api"
	"github.com/dgallion1/dmukit/internal/config"
	"github.com/dgallion1/dmukit/internal/parser"
	"github.com/dgallion1/dmukit/internal/pipeline"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
	"github.com/dgallion1/dmukit/internal/watch"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open table: %w", err)
	}
	defer db.Close()

	styles, err := style.LoadTable(cfg.StyleTable)
	if err != nil {
		return fmt.Errorf("load style table: %w", err)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, db, styles, log)
	orch.Start(ctx)
	defer orch.Stop()

	// Initialize HTTP server.
	srv := api.NewServer(orch, db, styles, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.WatchDir != "" {
		g.Go(func() error {
			opts := watch.Options{Debounce: cfg.WatchDebounce, Accept: parser.IsSupportedExtension}
			return watch.Watch(gCtx, cfg.WatchDir, opts, log, func(path string) {
				submitFile(orch, log, path, cfg.MaxUploadBytes)
			})
		})
	}

	g.Go(func() error {
		log.Info("starting dmukit", "port", cfg.Port, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown.
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// submitFile queues a watched file as an import job.
func submitFile(orch *pipeline.Orchestrator, log *slog.Logger, path string, maxBytes int64) {
	info, err := os.Stat(path)
	if err != nil {
		log.Warn("watched file vanished", "path", path, "error", err)
		return
	}
	if info.Size() > maxBytes {
		log.Warn("watched file too large, skipping", "path", path, "size", info.Size())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("read watched file", "path", path, "error", err)
		return
	}

	job := pipeline.NewJob(filepath.Base(path), data)
	if err := orch.Submit(job); err != nil {
		log.Error("submit watched file", "path", path, "error", err)
		return
	}
	log.Info("queued watched file", "path", path, "job_id", job.ID)
}
