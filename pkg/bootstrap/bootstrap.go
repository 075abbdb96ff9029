package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"

	shared "github.com/ripixel/workout-sync/pkg"
	"github.com/ripixel/workout-sync/pkg/infrastructure/oauth"
	"github.com/ripixel/workout-sync/pkg/infrastructure/sentry"
	"github.com/ripixel/workout-sync/pkg/integrations/notion"
	"github.com/ripixel/workout-sync/pkg/integrations/strava"
)

// Config holds all configuration for the intake functions. It is populated
// once at cold start and passed by reference; business logic never reads
// the process environment directly.
type Config struct {
	NotionToken      string `envconfig:"NOTION_TOKEN" required:"true"`
	NotionDatabaseID string `envconfig:"NOTION_DATABASE_ID" required:"true"`

	StravaClientID     string `envconfig:"STRAVA_CLIENT_ID"`
	StravaClientSecret string `envconfig:"STRAVA_CLIENT_SECRET"`
	StravaAccessToken  string `envconfig:"STRAVA_ACCESS_TOKEN"`
	StravaRefreshToken string `envconfig:"STRAVA_REFRESH_TOKEN"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Service holds initialized dependencies.
type Service struct {
	Workouts shared.WorkoutStore
	Strava   shared.ActivityFetcher
	Config   *Config
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// GetSlogHandlerOptions returns standard handler options for GCP.
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ParseLogLevel maps a configured level string to a slog.Level,
// defaulting to Info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance.
func NewLogger(serviceName string, level slog.Level) *slog.Logger {
	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With("service", serviceName)
}

// NewService initializes all standard dependencies.
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(NewLogger("workout-sync", ParseLogLevel(cfg.LogLevel)))
	slog.Info("Initializing service", "environment", cfg.Environment)

	if err := sentry.Init(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	}, slog.Default()); err != nil {
		// Error tracking is best-effort; the function still serves requests.
		slog.Error("Sentry init failed", "error", err)
	}

	stravaHTTP := oauth.NewStravaClient(ctx, oauth.Credentials{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		AccessToken:  cfg.StravaAccessToken,
		RefreshToken: cfg.StravaRefreshToken,
	})

	return &Service{
		Workouts: notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID),
		Strava:   strava.NewClient(stravaHTTP),
		Config:   cfg,
	}, nil
}
