package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daysync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeFile(t, `
provider: openai
model: gpt-4o-mini
providers:
  openai:
    api_key: sk-file
store:
  driver: sqlite
  path: /tmp/daysync.db
conversation:
  oracle_timeout: 10s
retention:
  max_sessions_per_user: 5
  session_max_age: 72h
`)
	t.Setenv(EnvOpenAIAPIKey, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-file", cfg.ProviderSettings().APIKey)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Conversation.OracleTimeout)
	assert.Equal(t, 5, cfg.Retention.MaxSessionsPerUser)
	assert.Equal(t, 72*time.Hour, cfg.Retention.SessionMaxAge)
	assert.Equal(t, 50, cfg.Retention.MaxMessagesPerSession, "untouched keys keep defaults")
	assert.Equal(t, 10, cfg.Conversation.HistoryLimit)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvProvider:        "anthropic",
		EnvModel:           "claude-sonnet-4-5",
		EnvStore:           "sqlite",
		EnvDBPath:          "/var/lib/daysync.db",
		EnvTimezone:        "UTC",
		EnvLogLevel:        "debug",
		EnvAnthropicAPIKey: "sk-env",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/daysync.db", cfg.Store.Path)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sk-env", cfg.ProviderSettings().APIKey)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, `unknown provider "bard"`},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, `unknown store driver "postgres"`},
		{"sqlite without path", func(c *Config) { c.Store.Driver, c.Store.Path = DriverSQLite, "" }, "store.path is required"},
		{"zero session cap", func(c *Config) { c.Retention.MaxSessionsPerUser = 0 }, "retention.max_sessions_per_user must be positive"},
		{"negative message cap", func(c *Config) { c.Retention.MaxMessagesPerSession = -1 }, "retention.max_messages_per_session must be positive"},
		{"negative route age", func(c *Config) { c.Retention.RouteMaxAge = -time.Hour }, "retention.route_max_age must not be negative"},
		{"zero history", func(c *Config) { c.Conversation.HistoryLimit = 0 }, "conversation.history_limit must be positive"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "provider: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "retention:\n  max_sessions_per_user: 0\n"))
	assert.Error(t, err)
}
