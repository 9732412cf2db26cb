// Package config loads the application configuration from a YAML file and
// resolves the provider credential from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ErrMissingAPIKey is returned when no provider credential can be resolved.
// It is fatal at startup; the key is never read again once a session runs.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY not set")

const apiKeyEnv = "OPENROUTER_API_KEY"

// Config holds application configuration. Every field has a default so the
// program runs with an empty or absent config file.
type Config struct {
	Model        string  `yaml:"model"`
	BaseURL      string  `yaml:"base_url"`
	ContextDir   string  `yaml:"context_dir"`
	Transcripts  string  `yaml:"transcripts_dir"`
	HistoryDB    string  `yaml:"history_db"`
	Preamble     string  `yaml:"system_prompt_prefix"`
	FetchPricing bool    `yaml:"fetch_pricing"`
	Context      Context `yaml:"context_files"`

	// APIKey comes only from the environment, never from the file, and is
	// never written to any persisted artifact.
	APIKey string `yaml:"-"`
}

// Context names the three documents assembled into the system prompt.
type Context struct {
	Profile      string `yaml:"profile"`
	Preferences  string `yaml:"preferences"`
	CurrentFocus string `yaml:"current_focus"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:        "anthropic/claude-sonnet-4",
		BaseURL:      "https://openrouter.ai/api/v1",
		ContextDir:   "context",
		Transcripts:  "conversations",
		HistoryDB:    "history.db",
		Preamble:     "You are a helpful personal assistant. Use the background information below to tailor your answers.",
		FetchPricing: true,
		Context: Context{
			Profile:      "profile.md",
			Preferences:  "preferences.md",
			CurrentFocus: "current_focus.md",
		},
	}
}

// Load reads the YAML file at path, applies defaults for unset fields, and
// resolves the API key from the environment (loading .env first if present).
// A missing config file is not an error; callers that need the credential
// check it with RequireAPIKey.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		applyDefaults(&cfg)
	case os.IsNotExist(err):
		// run on defaults
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	cfg.APIKey = os.Getenv(apiKeyEnv)
	return cfg, nil
}

// RequireAPIKey fails when no credential was resolved. The chat session
// checks this at startup and exits non-zero; read-only subcommands don't.
func (c Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// applyDefaults fills string fields the YAML left empty. Booleans keep
// whatever the file said.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ContextDir == "" {
		cfg.ContextDir = def.ContextDir
	}
	if cfg.Transcripts == "" {
		cfg.Transcripts = def.Transcripts
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = def.HistoryDB
	}
	if cfg.Preamble == "" {
		cfg.Preamble = def.Preamble
	}
	if cfg.Context.Profile == "" {
		cfg.Context.Profile = def.Context.Profile
	}
	if cfg.Context.Preferences == "" {
		cfg.Context.Preferences = def.Context.Preferences
	}
	if cfg.Context.CurrentFocus == "" {
		cfg.Context.CurrentFocus = def.Context.CurrentFocus
	}
}
