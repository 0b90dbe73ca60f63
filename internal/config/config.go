// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/repgen/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete repgen configuration.
type Config struct {
	API    APIConfig    `toml:"api" json:"api"`
	UI     UIConfig     `toml:"ui" json:"ui"`
	Export ExportConfig `toml:"export" json:"export"`
	Server ServerConfig `toml:"server" json:"server"`
}

// APIConfig points the client at the report backend.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8787/api.
	BaseURL string `toml:"base_url" json:"base_url"`
	// UserID identifies whose conversations are shown.
	UserID string `toml:"user_id" json:"user_id"`
	// TimeoutSecs bounds a single request. 0 leaves requests unbounded
	// apart from context cancellation.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond paces outgoing requests. 0 disables pacing.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme             string `toml:"theme" json:"theme"`
	ShowTimestamps    bool   `toml:"show_timestamps" json:"show_timestamps"`
	ComposerMaxHeight int    `toml:"composer_max_height" json:"composer_max_height"`
	SidebarVisible    bool   `toml:"sidebar_visible" json:"sidebar_visible"`
}

// ExportConfig contains export settings.
type ExportConfig struct {
	// Dir receives CSV and transcript exports. Empty means the working directory.
	Dir string `toml:"dir" json:"dir"`
}

// ServerConfig configures `repgen serve`.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
	// DBPath is the SQLite file. Empty keeps data in memory.
	DBPath        string `toml:"db_path" json:"db_path"`
	Seed          bool   `toml:"seed" json:"seed"`
	OpenAIAPIKey  string `toml:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url" json:"openai_base_url"`
	OpenAIModel   string `toml:"openai_model" json:"openai_model"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8787/api",
			UserID:      "demo",
			TimeoutSecs: 0,
		},
		UI: UIConfig{
			Theme:             "auto",
			ShowTimestamps:    false,
			ComposerMaxHeight: 8,
			SidebarVisible:    true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.repgen.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".repgen"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the file the TUI logs to.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repgen.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.repgen/config.toml, falling back to config.json and then to
// the defaults. REPGEN_* environment variables are applied last.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"config.toml", "config.json"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath reads the file at path. Files ending in .json are decoded as
// JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	fillDefaults(cfg)
	return finish(cfg)
}

// finish applies environment overrides and validates.
func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills values a partial file left empty. Booleans are kept as
// written.
func fillDefaults(cfg *Config) {
	d := Default()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.UserID == "" {
		cfg.API.UserID = d.API.UserID
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = d.UI.Theme
	}
	if cfg.UI.ComposerMaxHeight == 0 {
		cfg.UI.ComposerMaxHeight = d.UI.ComposerMaxHeight
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to ~/.repgen/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as TOML to path with owner-only permissions.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# repgen configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "must be an http or https URL, got %q", c.API.BaseURL)
	}
	if strings.TrimSpace(c.API.UserID) == "" {
		add("api.user_id", "is required")
	}
	if c.API.TimeoutSecs < 0 || c.API.TimeoutSecs > 600 {
		add("api.timeout_secs", "must be 0-600, got %d", c.API.TimeoutSecs)
	}
	if c.API.RequestsPerSecond < 0 {
		add("api.requests_per_second", "cannot be negative")
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be one of: dark, light, auto, got %q", c.UI.Theme)
	}
	if c.UI.ComposerMaxHeight < 1 || c.UI.ComposerMaxHeight > 20 {
		add("ui.composer_max_height", "must be 1-20, got %d", c.UI.ComposerMaxHeight)
	}

	if c.Server.Addr == "" {
		add("server.addr", "is required")
	}
	if c.Server.OpenAIBaseURL != "" {
		if _, err := url.ParseRequestURI(c.Server.OpenAIBaseURL); err != nil {
			add("server.openai_base_url", "invalid URL: %v", err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.OpenAIAPIKey != "" {
		safe.Server.OpenAIAPIKey = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// A load failure falls back to the defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
