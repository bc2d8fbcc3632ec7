package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Supported STATE_BACKEND values.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT" default:"30s"`

	XAPIKey       string        `env:"X_API_KEY"`
	XAPISecret    string        `env:"X_API_SECRET"`
	XAccessToken  string        `env:"X_ACCESS_TOKEN"`
	XAccessSecret string        `env:"X_ACCESS_SECRET"`
	XBearerToken  string        `env:"X_BEARER_TOKEN"`
	XAPIHost      string        `env:"X_API_HOST" default:"https://api.twitter.com"`
	XTimeout      time.Duration `env:"X_TIMEOUT" default:"20s"`

	StateBackend   string `env:"STATE_BACKEND" default:"file"`
	MarkerLocation string `env:"MARKER_LOCATION" default:"last_post.txt"`
	LedgerLocation string `env:"LEDGER_LOCATION" default:"replied_ids.txt"`
	LockFile       string `env:"LOCK_FILE" default:".gomining-bot.lock"`
	RedisURL       string `env:"REDIS_URL"`
	DatabaseURL    string `env:"DATABASE_URL"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Prefix    string `env:"S3_PREFIX"`
	S3Region    string `env:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	Timezone        string `env:"TIMEZONE" default:"Local"`
	ActiveStartHour int    `env:"ACTIVE_START_HOUR" default:"11"`
	ActiveEndHour   int    `env:"ACTIVE_END_HOUR" default:"23"`

	PostEnabled  bool `env:"POST_ENABLED" default:"true"`
	ReplyEnabled bool `env:"REPLY_ENABLED" default:"true"`
	LikeEnabled  bool `env:"LIKE_ENABLED" default:"true"`
	MentionLimit int  `env:"MENTION_LIMIT" default:"20"`

	RunInterval time.Duration `env:"RUN_INTERVAL" default:"15m"`
	HTTPAddr    string        `env:"HTTP_ADDR"`
	StatusRate  float64       `env:"STATUS_RATE" default:"1"`
	StatusBurst int           `env:"STATUS_BURST" default:"5"`

	BotSubject  string `env:"BOT_SUBJECT" default:"my GoMining farm"`
	BotStats    string `env:"BOT_STATS" default:"10.39 TH/s power"`
	BotHashtags string `env:"BOT_HASHTAGS" default:"#Bitcoin,#GoMining,#BTC"`

	location *time.Location
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ActiveStartHour < 0 || cfg.ActiveStartHour > 23 || cfg.ActiveEndHour < 0 || cfg.ActiveEndHour > 23 {
		return fmt.Errorf("ACTIVE_START_HOUR and ACTIVE_END_HOUR must be within 0..23, got %d..%d", cfg.ActiveStartHour, cfg.ActiveEndHour)
	}
	if cfg.ActiveStartHour > cfg.ActiveEndHour {
		return fmt.Errorf("ACTIVE_START_HOUR (%d) must not be after ACTIVE_END_HOUR (%d)", cfg.ActiveStartHour, cfg.ActiveEndHour)
	}

	if cfg.MentionLimit < 5 || cfg.MentionLimit > 100 {
		return fmt.Errorf("MENTION_LIMIT must be between 5 and 100, got %d", cfg.MentionLimit)
	}
	if cfg.RunInterval < time.Minute {
		return fmt.Errorf("RUN_INTERVAL must be at least 1m, got %s", cfg.RunInterval)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.MarkerLocation == "" || cfg.LedgerLocation == "" {
		return errors.New("MARKER_LOCATION and LEDGER_LOCATION must not be empty")
	}
	if cfg.MarkerLocation == cfg.LedgerLocation {
		return errors.New("MARKER_LOCATION and LEDGER_LOCATION must differ")
	}

	switch cfg.StateBackend {
	case BackendFile:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when STATE_BACKEND=redis")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STATE_BACKEND=postgres")
		}
		if cfg.AppEnv == "production" {
			if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
				return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
			}
		}
	case BackendS3:
		if cfg.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STATE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be one of file, redis, postgres, s3, got %q", cfg.StateBackend)
	}

	if _, err := url.ParseRequestURI(cfg.XAPIHost); err != nil {
		return fmt.Errorf("X_API_HOST must be an absolute URL: %w", err)
	}

	if cfg.LikeEnabled && !cfg.ReplyEnabled {
		slog.Warn("LIKE_ENABLED has no effect while REPLY_ENABLED=false")
	}

	return nil
}

// ValidateCredentials checks the API credentials needed by run and serve.
// The check command skips it so it can report every missing key at once.
func (c *Config) ValidateCredentials() error {
	var missing []string
	for _, v := range c.Credentials() {
		if v.Required && v.Value == "" {
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Credential is one secret with its env var name, for reporting.
type Credential struct {
	Name     string
	Value    string
	Required bool
}

// Credentials lists the API secrets in a stable order.
func (c *Config) Credentials() []Credential {
	return []Credential{
		{Name: "GEMINI_API_KEY", Value: c.GeminiAPIKey, Required: true},
		{Name: "X_API_KEY", Value: c.XAPIKey, Required: true},
		{Name: "X_API_SECRET", Value: c.XAPISecret, Required: true},
		{Name: "X_ACCESS_TOKEN", Value: c.XAccessToken, Required: true},
		{Name: "X_ACCESS_SECRET", Value: c.XAccessSecret, Required: true},
		{Name: "X_BEARER_TOKEN", Value: c.XBearerToken},
	}
}

// Location returns the zone used to compute post windows.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Hashtags splits BOT_HASHTAGS on commas, dropping blanks.
func (c *Config) Hashtags() []string {
	var tags []string
	for _, tag := range strings.Split(c.BotHashtags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Mask shows the first four characters of a secret so the right key can be
// recognised without leaking it.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "(" + strings.Repeat("*", len(value)) + ")"
	}
	return "(" + value[:4] + "...)"
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
