// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
//
// Examples:
//
//	repgen config                         Show the effective configuration
//	repgen config get ui.theme
//	repgen config set ui.theme light      Validates, then saves
//	repgen config path
//	repgen config keys

package cli

import (
	"fmt"

	"github.com/jeranaias/repgen/internal/config"
)

const configUsage = "repgen config [show | get KEY | set KEY VALUE | path | keys]"

// ConfigValue is the --json payload of `config get` and `config set`.
type ConfigValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// HandleConfig inspects or edits the configuration file.
func HandleConfig(env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	cfg := env.Config

	switch sub := p.Subcommand(); sub {
	case "", "show":
		if args.JSON {
			safe := cfg.Clone()
			if safe.Server.OpenAIAPIKey != "" {
				safe.Server.OpenAIAPIKey = "[REDACTED]"
			}
			return NewJSONResponse("config", safe).Write(env.Stdout)
		}
		if !args.Quiet {
			fmt.Fprintln(env.Stdout, DimStyle.Render("# "+env.ConfigPath))
		}
		fmt.Fprint(env.Stdout, cfg.String())
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return usagef(configUsage, "missing key")
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if key == "server.openai_api_key" && v != "" {
			v = "[REDACTED]"
		}
		if args.JSON {
			return NewJSONResponse("config get", ConfigValue{Key: key, Value: v}).Write(env.Stdout)
		}
		fmt.Fprintln(env.Stdout, v)
		return nil

	case "set":
		key, value := p.Positional(1), p.JoinFrom(2)
		if key == "" || p.PositionalCount() < 3 {
			return usagef(configUsage, "set needs a key and a value")
		}
		updated := cfg.Clone()
		if err := updated.Set(key, value); err != nil {
			return err
		}
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := config.SaveTo(updated, env.ConfigPath); err != nil {
			return err
		}
		*cfg = *updated
		config.SetGlobal(cfg)

		if args.JSON {
			v, _ := cfg.Get(key)
			return NewJSONResponse("config set", ConfigValue{Key: key, Value: v}).Write(env.Stdout)
		}
		if !args.Quiet {
			fmt.Fprintf(env.Stdout, "%s %s = %s\n", SuccessStyle.Render("Set"), key, value)
		}
		return nil

	case "path":
		fmt.Fprintln(env.Stdout, env.ConfigPath)
		return nil

	case "keys":
		if args.JSON {
			return NewJSONResponse("config keys", config.Keys()).Write(env.Stdout)
		}
		for _, key := range config.Keys() {
			v, _ := cfg.GetString(key)
			if key == "server.openai_api_key" && v != "" {
				v = "[REDACTED]"
			}
			fmt.Fprintln(env.Stdout, RenderKeyValue(key, v))
		}
		return nil

	default:
		return usagef(configUsage, "unknown config subcommand %q", sub)
	}
}
