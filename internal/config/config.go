// Package config builds the run configuration from defaults, an optional
// YAML file and the GitHub Actions environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIKey is the public Trello API key of the trello-link application.
// Members authorize it by generating a token.
const DefaultAPIKey = "09045f0c83d151e8d48ec9feb99e78ae"

// Config is the configuration of a single run. It is built once at startup
// and not modified afterwards.
type Config struct {
	Marker            string `yaml:"marker"`
	BoardIdentifier   string `yaml:"board_identifier"`
	AllowMissingBoard bool   `yaml:"allow_missing_board"`
	IsolateFailures   bool   `yaml:"isolate_failures"`
	DryRun            bool   `yaml:"dry_run"`
	EventPath         string `yaml:"event_path"`

	Trello  TrelloConfig  `yaml:"trello"`
	Log     LogConfig     `yaml:"log"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Run describes the triggering workflow run. It only comes from the
	// runner's environment.
	Run RunInfo `yaml:"-"`
}

// TrelloConfig defines the Trello API connection.
type TrelloConfig struct {
	APIKey  string        `yaml:"api_key"`
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 = no timeout
}

// LogConfig defines logging output.
type LogConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	SentryDSN string `yaml:"sentry_dsn"`
}

// LedgerConfig defines the optional SQLite record of runs and attachments.
type LedgerConfig struct {
	Path string `yaml:"path"` // empty = disabled
}

// MetricsConfig defines the optional Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // empty = disabled
}

// RunInfo identifies the workflow run that triggered the action.
type RunInfo struct {
	EventName  string
	Repository string
	SHA        string
	Actions    bool
}

// DefaultConfig returns a config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Trello: TrelloConfig{
			APIKey:  DefaultAPIKey,
			BaseURL: "https://api.trello.com",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then action inputs and runner variables from getenv.
func Load(path string, getenv Getenv) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.expandEnvVars(getenv)
	return cfg, nil
}

// DefaultConfigPath returns the config file named by TRELLO_LINK_CONFIG, if any.
func DefaultConfigPath(getenv Getenv) string {
	return getenv("TRELLO_LINK_CONFIG")
}

// Input returns the action input name as the runner exposes it: INPUT_ with
// the name upper-cased and spaces replaced, hyphens kept.
func Input(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

func (c *Config) applyEnv(getenv Getenv) error {
	setString := func(dst *string, name string) {
		if v := strings.TrimSpace(getenv(Input(name))); v != "" {
			*dst = v
		}
	}
	setString(&c.Trello.Token, "trello-token")
	setString(&c.BoardIdentifier, "board-identifier")
	setString(&c.Marker, "marker")
	setString(&c.Trello.APIKey, "trello-api-key")
	setString(&c.Log.Level, "log-level")

	for name, dst := range map[string]*bool{
		"allow-missing-board": &c.AllowMissingBoard,
		"isolate-failures":    &c.IsolateFailures,
		"dry-run":             &c.DryRun,
	} {
		v := strings.TrimSpace(getenv(Input(name)))
		if v == "" {
			continue
		}
		b, err := ParseBool(v)
		if err != nil {
			return fmt.Errorf("input %s: %w", name, err)
		}
		*dst = b
	}

	if p := getenv("GITHUB_EVENT_PATH"); p != "" && c.EventPath == "" {
		c.EventPath = p
	}
	c.Run = RunInfo{
		EventName:  getenv("GITHUB_EVENT_NAME"),
		Repository: getenv("GITHUB_REPOSITORY"),
		SHA:        getenv("GITHUB_SHA"),
		Actions:    getenv("GITHUB_ACTIONS") == "true",
	}
	return nil
}

func (c *Config) expandEnvVars(getenv Getenv) {
	expand := func(s string) string { return os.Expand(s, getenv) }
	c.Trello.Token = expand(c.Trello.Token)
	c.Trello.APIKey = expand(c.Trello.APIKey)
	c.Log.SentryDSN = expand(c.Log.SentryDSN)
}

// ErrInvalidBool is returned for boolean inputs outside the YAML 1.2 core schema.
var ErrInvalidBool = errors.New("value does not meet the YAML 1.2 \"Core Schema\" specification; support boolean input list: `true | True | TRUE | false | False | FALSE`")

// ParseBool parses a boolean action input the way the Actions toolkit does.
func ParseBool(v string) (bool, error) {
	switch v {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%q: %w", v, ErrInvalidBool)
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.DryRun {
		return nil
	}
	if c.Trello.Token == "" {
		return errors.New("trello token is required (input trello-token)")
	}
	if c.Trello.APIKey == "" {
		return errors.New("trello api key is required")
	}
	return nil
}
