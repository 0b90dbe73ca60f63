// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves repgen settings.
//
// # Sections
//
//   - [api]: backend base_url, user_id, timeout_secs, requests_per_second
//   - [ui]: theme, show_timestamps, composer_max_height, sidebar_visible
//   - [export]: dir
//   - [server]: addr, db_path, seed and the optional OpenAI responder
//
// # Precedence
//
//   - REPGEN_* and OPENAI_* environment variables (a .env file is loaded first)
//   - ~/.repgen/config.toml, or ~/.repgen/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	theme, _ := cfg.GetString("ui.theme")
package config
