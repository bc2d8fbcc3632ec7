package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/backend"
	"github.com/gbdavies1992-hash/gomining-bot/internal/cadence"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

type stubComposer struct {
	text string
	err  error
}

func (s stubComposer) Generate(context.Context, string) (string, error) { return s.text, s.err }

type stubSocial struct {
	domain.SocialClient
	account domain.Account
	err     error
}

func (s stubSocial) Me(context.Context) (domain.Account, error) { return s.account, s.err }

func TestHealthChecks(t *testing.T) {
	b := &backend.Backend{Checks: []backend.HealthCheck{
		{Name: "redis", Check: func(context.Context) error { return nil }},
	}}

	checks := healthChecks(b)

	require.Len(t, checks, 1)
	assert.Equal(t, "redis", checks[0].Name)
	assert.NoError(t, checks[0].Check(context.Background()))
}

func TestPrintEnvCheck(t *testing.T) {
	cfg := &config.Config{
		GeminiAPIKey:  "AIzaSyExample",
		XAPIKey:       "key1234",
		XAPISecret:    "abc",
		XAccessToken:  "",
		XAccessSecret: "secret99",
	}

	var buf bytes.Buffer
	missing := printEnvCheck(&buf, cfg)
	out := buf.String()

	assert.Equal(t, 1, missing)
	assert.Contains(t, out, "GEMINI_API_KEY: FOUND (AIza...)")
	assert.Contains(t, out, "X_API_SECRET: FOUND (***)")
	assert.Contains(t, out, "X_ACCESS_TOKEN: MISSING")
	assert.Contains(t, out, "X_BEARER_TOKEN: not set (optional)")
	assert.NotContains(t, out, "SyExample")
}

func TestProbeComposer(t *testing.T) {
	ok := probeComposer(context.Background(), stubComposer{text: " Gemini is online! "})
	assert.True(t, ok.OK)
	assert.Equal(t, "Gemini is online!", ok.Detail)

	failed := probeComposer(context.Background(), stubComposer{err: errors.New("403 API key invalid")})
	assert.False(t, failed.OK)
	assert.Contains(t, failed.Detail, "API key invalid")
}

func TestProbeSocial(t *testing.T) {
	ok := probeSocial(context.Background(), stubSocial{account: domain.Account{ID: "1", Username: "gomining_bot"}})
	assert.True(t, ok.OK)
	assert.Equal(t, "connected as @gomining_bot", ok.Detail)

	failed := probeSocial(context.Background(), stubSocial{err: errors.New("401 Unauthorized")})
	assert.False(t, failed.OK)
}

func TestDescribeDecision(t *testing.T) {
	assert.Equal(t, "allowed (window 2026-10-16_hour_14)",
		describeDecision(cadence.Decision{Allowed: true, WindowKey: "2026-10-16_hour_14"}))
	assert.Equal(t, "blocked: already_posted_this_hour (window 2026-10-16_hour_14)",
		describeDecision(cadence.Decision{WindowKey: "2026-10-16_hour_14", Reason: cadence.ReasonAlreadyPosted}))
	assert.Equal(t, "blocked: quiet_hours", describeDecision(cadence.Decision{Reason: cadence.ReasonQuietHours}))
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "gomining-bot "))
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "serve", "check", "status", "version"} {
		assert.True(t, names[want], want)
	}
}
