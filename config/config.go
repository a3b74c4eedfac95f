// Package config loads the assistant configuration from a YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Environment variables that override file values.
const (
	EnvProvider        = "DAYSYNC_PROVIDER"
	EnvModel           = "DAYSYNC_MODEL"
	EnvDBPath          = "DAYSYNC_DB_PATH"
	EnvStore           = "DAYSYNC_STORE"
	EnvTimezone        = "DAYSYNC_TIMEZONE"
	EnvLogLevel        = "DAYSYNC_LOG_LEVEL"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// Config is the complete assistant configuration.
type Config struct {
	Provider     string                    `yaml:"provider"`
	Model        string                    `yaml:"model"`
	Providers    map[string]ProviderConfig `yaml:"providers"`
	Timezone     string                    `yaml:"timezone"`
	Store        StoreConfig               `yaml:"store"`
	Conversation ConversationConfig        `yaml:"conversation"`
	Retention    RetentionConfig           `yaml:"retention"`
	Logging      LoggingConfig             `yaml:"logging"`
}

// ProviderConfig holds credentials of one oracle provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// StoreConfig selects the repository.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// ConversationConfig tunes the turn loop.
type ConversationConfig struct {
	HistoryLimit  int           `yaml:"history_limit"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
}

// RetentionConfig bounds stored history.
type RetentionConfig struct {
	MaxMessagesPerSession int           `yaml:"max_messages_per_session"`
	MaxSessionsPerUser    int           `yaml:"max_sessions_per_user"`
	SessionMaxAge         time.Duration `yaml:"session_max_age"`
	// InactiveUserAge is the idle time after which users cleanup soft-deletes.
	InactiveUserAge time.Duration `yaml:"inactive_user_age"`
	// RouteMaxAge is how long cached route searches are kept.
	RouteMaxAge time.Duration `yaml:"route_max_age"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:  ProviderGemini,
		Model:     "gemini-2.5-flash",
		Providers: map[string]ProviderConfig{},
		Timezone:  "Asia/Seoul",
		Store:     StoreConfig{Driver: DriverMemory, Path: "daysync.db"},
		Conversation: ConversationConfig{
			HistoryLimit:  10,
			OracleTimeout: 30 * time.Second,
		},
		Retention: RetentionConfig{
			MaxMessagesPerSession: 50,
			MaxSessionsPerUser:    15,
			SessionMaxAge:         30 * 24 * time.Hour,
			InactiveUserAge:       30 * 24 * time.Hour,
			RouteMaxAge:           7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "text", Backend: "slog"},
	}
}

// Load reads path (optional) over the defaults, applies environment
// overrides and validates the result. A missing file at an explicit path is
// an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Provider, EnvProvider)
	set(&c.Model, EnvModel)
	set(&c.Store.Path, EnvDBPath)
	set(&c.Store.Driver, EnvStore)
	set(&c.Timezone, EnvTimezone)
	set(&c.Logging.Level, EnvLogLevel)

	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, key := range map[string]string{
		ProviderGemini:    EnvGeminiAPIKey,
		ProviderOpenAI:    EnvOpenAIAPIKey,
		ProviderAnthropic: EnvAnthropicAPIKey,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			p := c.Providers[name]
			p.APIKey = v
			c.Providers[name] = p
		}
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"conversation.history_limit", c.Conversation.HistoryLimit},
		{"retention.max_messages_per_session", c.Retention.MaxMessagesPerSession},
		{"retention.max_sessions_per_user", c.Retention.MaxSessionsPerUser},
	} {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", f.name))
		}
	}
	if c.Retention.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("retention.session_max_age must be positive"))
	}
	if c.Retention.RouteMaxAge < 0 {
		errs = append(errs, errors.New("retention.route_max_age must not be negative"))
	}
	if c.Conversation.OracleTimeout < 0 {
		errs = append(errs, errors.New("conversation.oracle_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ProviderSettings returns the credentials of the selected provider.
func (c Config) ProviderSettings() ProviderConfig {
	return c.Providers[c.Provider]
}
