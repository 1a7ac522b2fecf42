// Tagcast keeps a catalog of podcast feeds in sync with a local database
// and serves their episodes and tags over a read-only JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/tagcast/internal/api"
	"github.com/jdholdren/tagcast/internal/config"
	"github.com/jdholdren/tagcast/logger"
)

func main() {
	envFile := flag.String("env-file", ".env", "file to load environment variables from")
	flag.Parse()

	// Parse the config
	cfg, err := config.Load(context.Background(), *envFile)
	if err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, cfg.LogLevel))

	// Start the application
	if err := runDaemon(cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runDaemon(cfg config.Config) error {
	slog.Info("running", "database", cfg.Database, "port", cfg.Port, "catalog", cfg.CatalogFile)

	dbx, repo, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("error opening store: %s", err)
	}
	defer dbx.Close()

	runner, err := cfg.Runner(repo)
	if err != nil {
		return fmt.Errorf("error setting up sync: %s", err)
	}
	s := api.NewServer(api.ServerConfig{
		Port:        cfg.Port,
		CorsOrigins: cfg.CorsOrigins,
		CacheTTL:    cfg.APICacheTTL,
	}, repo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g run.Group
	{
		// Block until a signal arrives or another actor gives up
		g.Add(func() error {
			<-ctx.Done()
			slog.Info("shutting down")
			return nil
		}, func(error) {
			stop()
		})
	}
	{
		// Start the server
		g.Add(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error listening: %s", err)
			}
			return nil
		}, func(error) {
			downCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Shutdown(downCtx); err != nil {
				slog.Error("error shutting down server", "error", err)
			}
		})
	}
	{
		// Start the syncer
		syncCtx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return runner.Loop(syncCtx, cfg.Catalog, cfg.SyncInterval)
		}, func(error) {
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		return fmt.Errorf("error running: %s", err)
	}

	return nil
}
