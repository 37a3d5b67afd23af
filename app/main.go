package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feed-reader/app/api"
	"github.com/lysyi3m/feed-reader/app/cfg"
	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/loader"
	"github.com/lysyi3m/feed-reader/app/tasks"
	"github.com/lysyi3m/feed-reader/app/view"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Feed reader stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting feed reader", "version", appCfg.Version, "port", appCfg.Port)

	catalog, err := feed.LoadCatalog(appCfg.FeedsFile, appCfg.URLSchemes)
	if err != nil {
		return fmt.Errorf("failed to load feed list: %w", err)
	}
	slog.Info("Feed list loaded", "feeds", catalog.Len(), "file", appCfg.FeedsFile)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	journal := database.NewLoadRepository(db)

	var cache *feed.Cache
	if appCfg.RefreshPeriod > 0 {
		cache = feed.NewCache(appCfg.RefreshPeriod)
	}

	client := &http.Client{Timeout: appCfg.FetchTimeout}
	fetcher := feed.NewFetcher(client, appCfg.UserAgent, appCfg.FetchTimeout, appCfg.FetchRetries)
	source := feed.NewSource(fetcher, feed.NewParser(), cache)

	state := view.NewState()
	feedLoader := loader.NewLoader(catalog, state, source, journal, loader.Options{
		QueueSize: appCfg.QueueSize,
		Timeout:   appCfg.LoadTimeout,
	})
	feedLoader.Start()
	defer feedLoader.Stop()

	if cache != nil {
		prefetcher := tasks.NewScheduler(tasks.Options{
			Name:        "prefetch",
			WorkerCount: appCfg.WorkerCount,
			QueueSize:   appCfg.QueueSize,
			Interval:    appCfg.RefreshPeriod,
			TaskTimeout: appCfg.LoadTimeout,
			Producer:    tasks.PrefetchProducer(catalog, source),
		})
		prefetcher.Start()
		defer prefetcher.Stop()
		slog.Info("Prefetch scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.RefreshPeriod.String())
	}

	// The page opens on the first feed.
	feedLoader.LoadFeed(context.Background(), 0, func(err error) {
		if err != nil {
			slog.Warn("Initial feed load failed", "error", err)
		}
	})

	handler := api.NewHandler(catalog, state, feedLoader, journal, appCfg.LoadTimeout)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.LoadTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Schedulers and the database are closed via defer
	slog.Info("Feed reader shutdown complete")

	return runErr
}
