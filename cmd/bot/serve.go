package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/backend"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/httpserver"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/app"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run cycles every RUN_INTERVAL until interrupted",
		Long:  "Run a cycle immediately and then every RUN_INTERVAL. When HTTP_ADDR is set, also serve /health/live, /health/ready, /version, /status and /metrics.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setupConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			d, err := buildDeps(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer d.Close()

			slog.Info("Bot starting", "env", cfg.AppEnv, "backend", cfg.StateBackend, "interval", cfg.RunInterval, "http_addr", cfg.HTTPAddr)

			scheduler := app.NewScheduler(d.bot, cfg.RunInterval, clockwork.NewRealClock())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				scheduler.Run(gctx)
				return nil
			})

			if cfg.HTTPAddr != "" {
				srv := httpserver.NewServer(
					httpserver.Config{Addr: cfg.HTTPAddr, StatusRate: cfg.StatusRate, StatusBurst: cfg.StatusBurst},
					d.bot,
					metrics.Handler(d.registry),
					d.http,
					healthChecks(d.backend),
				)
				g.Go(srv.Start)
				g.Go(func() error {
					<-gctx.Done()
					slog.Info("Shutdown signal received, stopping HTTP server")
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			err = g.Wait()
			slog.Info("Bot stopped")
			return err
		},
	}
}

func healthChecks(b *backend.Backend) []httpserver.HealthCheck {
	checks := make([]httpserver.HealthCheck, 0, len(b.Checks))
	for _, c := range b.Checks {
		checks = append(checks, httpserver.HealthCheck{Name: c.Name, Check: c.Check})
	}
	return checks
}
