package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/backend"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/gemini"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/x"
	"github.com/gbdavies1992-hash/gomining-bot/internal/app"
	"github.com/gbdavies1992-hash/gomining-bot/internal/cadence"
	"github.com/gbdavies1992-hash/gomining-bot/internal/ledger"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

// deps holds everything a command needs, built once per process.
type deps struct {
	bot      *app.Bot
	backend  *backend.Backend
	registry *prometheus.Registry
	http     *metrics.HTTPMetrics
}

func (d *deps) Close() {
	d.backend.Close()
}

// buildDeps wires the bot. withClients is false for commands that only read
// state and must work without API credentials.
func buildDeps(ctx context.Context, cfg *config.Config, withClients bool) (*deps, error) {
	reg := metrics.NewRegistry()
	storageMetrics := metrics.NewStorageMetrics(reg)
	upstreamMetrics := metrics.NewUpstreamMetrics(reg)

	gate, err := cadence.NewGate(cfg.ActiveStartHour, cfg.ActiveEndHour)
	if err != nil {
		return nil, err
	}

	b, err := backend.Open(ctx, cfg, storageMetrics)
	if err != nil {
		return nil, err
	}

	botDeps := app.Deps{
		Gate:    gate,
		Marker:  cadence.NewMarkerStore(b.Marker),
		Ledger:  ledger.New(b.Ledger),
		Lock:    b.Lock,
		Prompts: app.NewPromptBuilder(cfg.BotSubject, cfg.BotStats, cfg.Hashtags(), cfg.Location()),
		Clock:   clockwork.NewRealClock(),
		Metrics: metrics.NewCycleMetrics(reg),
	}

	if withClients {
		if err := cfg.ValidateCredentials(); err != nil {
			b.Close()
			return nil, err
		}

		composer, err := gemini.NewComposer(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
		}, upstreamMetrics)
		if err != nil {
			b.Close()
			return nil, err
		}

		social, err := x.NewClient(xConfig(cfg), upstreamMetrics)
		if err != nil {
			b.Close()
			return nil, err
		}

		botDeps.Composer = composer
		botDeps.Social = social
	}

	return &deps{
		bot: app.NewBot(botDeps, app.Options{
			PostEnabled:  cfg.PostEnabled,
			ReplyEnabled: cfg.ReplyEnabled,
			LikeEnabled:  cfg.LikeEnabled,
			MentionLimit: cfg.MentionLimit,
			Location:     cfg.Location(),
		}),
		backend:  b,
		registry: reg,
		http:     metrics.NewHTTPMetrics(reg),
	}, nil
}

func xConfig(cfg *config.Config) x.Config {
	return x.Config{
		APIKey:       cfg.XAPIKey,
		APISecret:    cfg.XAPISecret,
		AccessToken:  cfg.XAccessToken,
		AccessSecret: cfg.XAccessSecret,
		Host:         cfg.XAPIHost,
		Timeout:      cfg.XTimeout,
	}
}

func describeDecision(d cadence.Decision) string {
	if d.Allowed {
		return fmt.Sprintf("allowed (window %s)", d.WindowKey)
	}
	if d.WindowKey != "" {
		return fmt.Sprintf("blocked: %s (window %s)", d.Reason, d.WindowKey)
	}
	return "blocked: " + d.Reason
}
