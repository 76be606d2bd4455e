package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) Getenv {
	return func(key string) string { return m[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIKey, cfg.Trello.APIKey)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.AllowMissingBoard)
	assert.Empty(t, cfg.Marker)
}

func TestLoadActionInputs(t *testing.T) {
	cfg, err := Load("", envMap(map[string]string{
		"INPUT_TRELLO-TOKEN":        "tok",
		"INPUT_BOARD-IDENTIFIER":    "Engineering",
		"INPUT_MARKER":              "ABC-",
		"INPUT_ALLOW-MISSING-BOARD": "True",
		"INPUT_ISOLATE-FAILURES":    "FALSE",
		"GITHUB_EVENT_PATH":         "/github/workflow/event.json",
		"GITHUB_EVENT_NAME":         "push",
		"GITHUB_REPOSITORY":         "octo/repo",
		"GITHUB_SHA":                "abc123",
		"GITHUB_ACTIONS":            "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Trello.Token)
	assert.Equal(t, "Engineering", cfg.BoardIdentifier)
	assert.Equal(t, "ABC-", cfg.Marker)
	assert.True(t, cfg.AllowMissingBoard)
	assert.False(t, cfg.IsolateFailures)
	assert.Equal(t, "/github/workflow/event.json", cfg.EventPath)
	assert.Equal(t, RunInfo{EventName: "push", Repository: "octo/repo", SHA: "abc123", Actions: true}, cfg.Run)
}

func TestLoadRejectsInvalidBoolInput(t *testing.T) {
	_, err := Load("", envMap(map[string]string{"INPUT_ALLOW-MISSING-BOARD": "yes"}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBool))
	assert.Contains(t, err.Error(), "allow-missing-board")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trello-link.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
marker: "#"
board_identifier: Marketing
isolate_failures: true
trello:
  token: ${TRELLO_TOKEN}
  timeout: 30s
ledger:
  path: /tmp/ledger.db
metrics:
  textfile: /tmp/trello_link.prom
`), 0644))

	cfg, err := Load(path, envMap(map[string]string{
		"TRELLO_TOKEN":           "from-env",
		"INPUT_BOARD-IDENTIFIER": "Engineering",
	}))
	require.NoError(t, err)

	assert.Equal(t, "#", cfg.Marker)
	assert.Equal(t, "Engineering", cfg.BoardIdentifier, "action input overrides file")
	assert.True(t, cfg.IsolateFailures)
	assert.Equal(t, "from-env", cfg.Trello.Token)
	assert.Equal(t, 30*time.Second, cfg.Trello.Timeout)
	assert.Equal(t, DefaultAPIKey, cfg.Trello.APIKey)
	assert.Equal(t, "/tmp/ledger.db", cfg.Ledger.Path)
	assert.Equal(t, "/tmp/trello_link.prom", cfg.Metrics.Textfile)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("marker: [unclosed"), 0644))

	_, err := Load(path, envMap(nil))
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "True", "TRUE"} {
		b, err := ParseBool(v)
		require.NoError(t, err)
		assert.True(t, b)
	}
	for _, v := range []string{"false", "False", "FALSE"} {
		b, err := ParseBool(v)
		require.NoError(t, err)
		assert.False(t, b)
	}
	for _, v := range []string{"1", "yes", "tRUE", ""} {
		_, err := ParseBool(v)
		assert.Error(t, err, v)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.Trello.Token = "tok"
	assert.NoError(t, cfg.Validate())

	cfg.Trello.Token = ""
	cfg.DryRun = true
	assert.NoError(t, cfg.Validate())
}

func TestInput(t *testing.T) {
	assert.Equal(t, "INPUT_TRELLO-TOKEN", Input("trello-token"))
	assert.Equal(t, "INPUT_MY_INPUT", Input("my input"))
}
