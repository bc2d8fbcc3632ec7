package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/backend"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/gemini"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/x"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

const (
	checkTimeout = 30 * time.Second
	geminiProbe  = "Say 'Gemini is online!'"
)

type checkResult struct {
	Name   string
	OK     bool
	Detail string
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check credentials, Gemini, X and the state backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setupConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := printEnvCheck(out, cfg)

			fmt.Fprintln(out, "\n--- API CONNECTION CHECK ---")
			results := []checkResult{
				checkGemini(ctx, cfg),
				checkX(ctx, cfg),
				checkState(ctx, cfg),
			}
			for _, r := range results {
				printResult(out, r)
				if !r.OK {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

// printEnvCheck reports each credential with a masked preview and returns
// the number of missing required ones.
func printEnvCheck(w io.Writer, cfg *config.Config) int {
	fmt.Fprintln(w, "--- ENV CHECK ---")
	missing := 0
	for _, c := range cfg.Credentials() {
		switch {
		case c.Value != "":
			fmt.Fprintf(w, "%s: FOUND %s\n", c.Name, config.Mask(c.Value))
		case c.Required:
			missing++
			fmt.Fprintf(w, "%s: MISSING\n", c.Name)
		default:
			fmt.Fprintf(w, "%s: not set (optional)\n", c.Name)
		}
	}
	return missing
}

func printResult(w io.Writer, r checkResult) {
	mark := "FAILED"
	if r.OK {
		mark = "OK"
	}
	fmt.Fprintf(w, "%s: %s - %s\n", r.Name, mark, r.Detail)
}

func checkGemini(ctx context.Context, cfg *config.Config) checkResult {
	composer, err := gemini.NewComposer(ctx, gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
	}, nil)
	if err != nil {
		return checkResult{Name: "Gemini", Detail: err.Error()}
	}
	return probeComposer(ctx, composer)
}

func probeComposer(ctx context.Context, composer domain.Composer) checkResult {
	text, err := composer.Generate(ctx, geminiProbe)
	if err != nil {
		return checkResult{Name: "Gemini", Detail: err.Error()}
	}
	return checkResult{Name: "Gemini", OK: true, Detail: strings.TrimSpace(text)}
}

func checkX(ctx context.Context, cfg *config.Config) checkResult {
	client, err := x.NewClient(xConfig(cfg), nil)
	if err != nil {
		return checkResult{Name: "X", Detail: err.Error()}
	}
	return probeSocial(ctx, client)
}

func probeSocial(ctx context.Context, social domain.SocialClient) checkResult {
	account, err := social.Me(ctx)
	if err != nil {
		return checkResult{Name: "X", Detail: err.Error()}
	}
	return checkResult{Name: "X", OK: true, Detail: "connected as @" + account.Username}
}

func checkState(ctx context.Context, cfg *config.Config) checkResult {
	name := "State (" + cfg.StateBackend + ")"
	b, err := backend.Open(ctx, cfg, nil)
	if err != nil {
		return checkResult{Name: name, Detail: err.Error()}
	}
	defer b.Close()

	if err := b.Probe(ctx); err != nil {
		return checkResult{Name: name, Detail: err.Error()}
	}
	return checkResult{Name: name, OK: true, Detail: "marker and ledger readable"}
}
