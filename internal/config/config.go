package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the attachment tool
type Config struct {
	// Tracker
	YouTrackURL string
	Token       string

	// HTTP
	HTTPTimeoutSeconds int

	// Storage
	StagingPath        string
	JournalDatabaseURL string

	// Logging
	LogLevel string
	AppEnv   string
}

// Environment keys
const (
	KeyYouTrackURL        = "YOUTRACK_URL"
	KeyToken              = "YOUTRACK_TOKEN"
	KeyHTTPTimeoutSeconds = "HTTP_TIMEOUT_SECONDS"
	KeyStagingPath        = "STAGING_PATH"
	KeyJournalDatabaseURL = "JOURNAL_DATABASE_URL"
	KeyLogLevel           = "LOG_LEVEL"
	KeyAppEnv             = "APP_ENV"
)

// Load reads configuration from the environment through v
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault(KeyHTTPTimeoutSeconds, 30)
	v.SetDefault(KeyStagingPath, filepath.Join(os.TempDir(), "youtrack-attach"))
	v.SetDefault(KeyJournalDatabaseURL, "youtrack-attach.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAppEnv, "development")

	cfg := &Config{
		YouTrackURL:        v.GetString(KeyYouTrackURL),
		Token:              v.GetString(KeyToken),
		StagingPath:        v.GetString(KeyStagingPath),
		JournalDatabaseURL: v.GetString(KeyJournalDatabaseURL),
		LogLevel:           v.GetString(KeyLogLevel),
		AppEnv:             v.GetString(KeyAppEnv),
	}

	// YOUTRACK_URL is required
	if cfg.YouTrackURL == "" {
		return nil, fmt.Errorf("%s is required but not set", KeyYouTrackURL)
	}

	timeout, err := strconv.Atoi(v.GetString(KeyHTTPTimeoutSeconds))
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid integer: %w", KeyHTTPTimeoutSeconds, err)
	}
	cfg.HTTPTimeoutSeconds = timeout

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation(v *viper.Viper) (*Config, error) {
	cfg, err := Load(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.YouTrackURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("YouTrackURL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("YouTrackURL must use http or https")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTPTimeoutSeconds must be positive")
	}
	if c.StagingPath == "" {
		return fmt.Errorf("StagingPath cannot be empty")
	}
	if c.JournalDatabaseURL == "" {
		return fmt.Errorf("JournalDatabaseURL cannot be empty")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.Token == "" {
		return fmt.Errorf("%s is required in production", KeyToken)
	}

	u, err := url.Parse(c.YouTrackURL)
	if err != nil || u.Scheme != "https" {
		return fmt.Errorf("%s must use https in production", KeyYouTrackURL)
	}

	return nil
}

// HTTPTimeout returns the per-request timeout
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("youtrack_url", c.YouTrackURL),
		slog.Bool("token_set", c.Token != ""),
		slog.Int("http_timeout_seconds", c.HTTPTimeoutSeconds),
		slog.String("staging_path", c.StagingPath),
		slog.String("journal_database", redactDatabaseURL(c.JournalDatabaseURL)),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
	)
}

// redactDatabaseURL hides the password of a postgres URL; sqlite paths pass through.
func redactDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
