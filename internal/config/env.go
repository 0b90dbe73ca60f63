// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// envOverrides lists the REPGEN_* variables. Every field is a string so an
// unset variable can be told apart from an explicit zero.
type envOverrides struct {
	BaseURL       string `env:"REPGEN_API_URL"`
	UserID        string `env:"REPGEN_USER_ID"`
	Timeout       string `env:"REPGEN_TIMEOUT_SECS"`
	Theme         string `env:"REPGEN_THEME"`
	ExportDir     string `env:"REPGEN_EXPORT_DIR"`
	ServerAddr    string `env:"REPGEN_SERVER_ADDR"`
	DBPath        string `env:"REPGEN_DB_PATH"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL"`
}

// LoadDotEnv loads a .env file into the environment. A missing file is not
// an error; variables already set win.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ApplyEnvOverrides copies set REPGEN_* variables over the file values.
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	pairs := []struct {
		key   string
		value string
	}{
		{"api.base_url", o.BaseURL},
		{"api.user_id", o.UserID},
		{"api.timeout_secs", o.Timeout},
		{"ui.theme", o.Theme},
		{"export.dir", o.ExportDir},
		{"server.addr", o.ServerAddr},
		{"server.db_path", o.DBPath},
		{"server.openai_api_key", o.OpenAIAPIKey},
		{"server.openai_base_url", o.OpenAIBaseURL},
		{"server.openai_model", o.OpenAIModel},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		if err := c.Set(p.key, p.value); err != nil {
			return fmt.Errorf("environment override %s: %w", p.key, err)
		}
	}
	return nil
}
