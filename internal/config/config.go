// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pai configuration.
type Config struct {
	// Model is the Ollama model every request asks for.
	Model string `toml:"model"`

	// OllamaURL is the base URL of the local Ollama server.
	OllamaURL string `toml:"ollama_url"`

	// HistoryFile is where the conversation is kept between sessions.
	// Relative paths resolve against the working directory.
	HistoryFile string `toml:"history_file"`

	// PollIntervalMs is how often the UI drains finished replies.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// LogFile receives the debug log when Debug is set.
	LogFile string `toml:"log_file"`
	Debug   bool   `toml:"debug"`

	UI UIConfig `toml:"ui"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Title is shown in the header bar.
	Title string `toml:"title"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	// Markdown renders assistant replies with glamour.
	Markdown bool `toml:"markdown"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Model:          "llama3",
		OllamaURL:      "http://127.0.0.1:11434",
		HistoryFile:    "chat_history.json",
		PollIntervalMs: 100,
		LogFile:        "pai.log",
		UI: UIConfig{
			Title:    "P.A.I",
			Theme:    "dark",
			Markdown: true,
		},
	}
}

// PollInterval returns PollIntervalMs as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pai"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (the default location when empty),
// then applies .env and environment overrides and validates the result.
// A missing file is not an error: the defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	// .env is optional
	_ = LoadDotEnv()
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads a config file that must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decodeFile decodes TOML from path over cfg. Keys absent from the file keep
// the values already in cfg.
func decodeFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return os.ErrNotExist
	}
	return godotenv.Load(existing...)
}

// fillDefaults fills in any zero values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.OllamaURL == "" {
		c.OllamaURL = defaults.OllamaURL
	}
	if c.HistoryFile == "" {
		c.HistoryFile = defaults.HistoryFile
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = defaults.PollIntervalMs
	}
	if c.LogFile == "" {
		c.LogFile = defaults.LogFile
	}
	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - PAI_MODEL: overrides model
//   - PAI_OLLAMA_URL: overrides ollama_url (OLLAMA_HOST is honoured too)
//   - PAI_HISTORY_FILE: overrides history_file
//   - PAI_POLL_INTERVAL_MS: overrides poll_interval_ms
//   - PAI_DEBUG: "1" or "true" enables the debug log
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("PAI_MODEL"); model != "" {
		c.Model = model
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		c.OllamaURL = host
	}
	if u := os.Getenv("PAI_OLLAMA_URL"); u != "" {
		c.OllamaURL = u
	}

	if path := os.Getenv("PAI_HISTORY_FILE"); path != "" {
		c.HistoryFile = path
	}

	if ms := os.Getenv("PAI_POLL_INTERVAL_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil {
			c.PollIntervalMs = n
		}
	}

	if debug := os.Getenv("PAI_DEBUG"); debug != "" {
		c.Debug = debug == "1" || strings.EqualFold(debug, "true")
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# pai configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.OllamaURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "ollama_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.OllamaURL),
		})
	}

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}

	if c.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "poll_interval_ms",
			Message: fmt.Sprintf("must be positive, got %d", c.PollIntervalMs),
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
