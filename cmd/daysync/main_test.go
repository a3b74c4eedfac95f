package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvProvider, config.EnvModel, config.EnvStore, config.EnvDBPath, config.EnvLogLevel} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	body := "provider: mock\n" +
		"model: scripted\n" +
		"store:\n  driver: sqlite\n  path: " + filepath.Join(dir, "daysync.db") + "\n" +
		"logging:\n  level: error\n"
	path := filepath.Join(dir, "daysync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestUsersCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "users", "create", "--nickname", "민수", "--prep-time", "900")
	require.NoError(t, err)
	var created struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
		PrepTime int    `json:"prep_time"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "민수", created.Nickname)
	assert.Equal(t, 900, created.PrepTime)

	out, err = run(t, cfg, "", "users", "update", created.ID, "--nickname", "지은")
	require.NoError(t, err)
	assert.Contains(t, out, "지은")

	out, err = run(t, cfg, "", "users", "stats", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"total_sessions": 0`)

	_, err = run(t, cfg, "", "users", "update", created.ID)
	assert.Error(t, err)

	out, err = run(t, cfg, "", "users", "delete", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted user")

	_, err = run(t, cfg, "", "users", "show", created.ID)
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "", "users", "create")
	require.NoError(t, err)
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &u))

	// The mock provider has no scripted replies, so the turn fails and the
	// loop keeps going.
	out, err = run(t, cfg, "안녕\n\n/quit\n", "chat", "--user", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "! ")

	_, err = run(t, cfg, "", "chat", "--user", "ghost")
	assert.Error(t, err)
}

func TestSessionsAndRetentionCommands(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "", "users", "create")
	require.NoError(t, err)
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &u))

	_, err = run(t, cfg, "", "sessions", "list", "--user", u.ID)
	require.NoError(t, err)

	_, err = run(t, cfg, "", "sessions", "messages", "abc", "--user", u.ID)
	assert.Error(t, err)

	_, err = run(t, cfg, "", "sessions", "delete", "42", "--user", u.ID)
	assert.Error(t, err)

	out, err = run(t, cfg, "", "retention", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "swept 1 users")
}

func TestRoutesCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "routes", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = run(t, cfg, "", "routes", "stats")
	assert.Error(t, err)

	out, err = run(t, cfg, "", "routes", "stats", "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_routes": 0`)

	out, err = run(t, cfg, "", "routes", "cleanup", "--older-than", "48h")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 routes")
}

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "", formatFields(nil))
	assert.Equal(t, " destination=강남역 start=@current_location",
		formatFields(map[string]string{"start": "@current_location", "destination": "강남역"}))
}
