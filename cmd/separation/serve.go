package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/quiz"
	"github.com/vanshika/separation/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer and quiz HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := app.cfg, app.logger
	m := metrics.New()

	graphClient, err := openGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	defer closeGraph(graphClient, logger)

	src := buildSource(cfg, logger, graphClient)
	store := dataset.NewStore(src, dataset.WithLogger(logger), dataset.WithMetrics(m))
	if _, err := store.Snapshot(ctx); err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}

	game, err := buildGame(cfg, logger, m, store)
	if err != nil {
		return err
	}
	sessions := quiz.NewRegistry(cfg.Quiz.SessionTTL, cfg.Quiz.MaxHintLevels, m)

	if csvSrc, ok := src.(*dataset.CSVSource); ok && cfg.Dataset.Watch {
		watcher, err := dataset.NewWatcher(csvSrc.Paths(), func(ctx context.Context) error {
			_, err := store.Reload(ctx)
			return err
		}, cfg.Dataset.WatchDebounce, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Warn("stopping dataset watcher failed", "error", err)
			}
		}()
	}

	health := server.HealthChecks{store}
	if graphClient != nil {
		health = append(health, server.GraphHealthService{Client: graphClient})
	}
	deps := server.RouterDependencies{
		Health:           health,
		API:              server.NewAPIHandlers(logger, game, sessions),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	}
	if cfg.HTTP.MetricsEnabled {
		deps.Metrics = m.Handler()
	}
	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		sweepSessions(gctx, sessions, cfg.Quiz.SessionTTL, logger)
		return nil
	})
	return g.Wait()
}

// sweepSessions drops idle quiz sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *quiz.Registry, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Info("expired quiz sessions removed", "count", n)
			}
		}
	}
}
