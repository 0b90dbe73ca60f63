// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/config"
)

func TestMain(m *testing.M) {
	ForceColorsEnabled(false)
	lipgloss.SetColorProfile(termenv.Ascii)
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		bools      []string
		positional []string
		flags      map[string]string
		boolFlags  []string
	}{
		{
			name:       "positional only",
			args:       []string{"get", "ui.theme"},
			positional: []string{"get", "ui.theme"},
		},
		{
			name:       "value flag",
			args:       []string{"c1", "--format", "csv"},
			positional: []string{"c1"},
			flags:      map[string]string{"format": "csv"},
		},
		{
			name:       "equals form",
			args:       []string{"--out=reports", "c1"},
			positional: []string{"c1"},
			flags:      map[string]string{"out": "reports"},
		},
		{
			name:       "short flag",
			args:       []string{"-o", "reports", "c1"},
			positional: []string{"c1"},
			flags:      map[string]string{"o": "reports"},
		},
		{
			name:       "declared boolean does not take a value",
			args:       []string{"--timestamps", "c1"},
			bools:      []string{"timestamps"},
			positional: []string{"c1"},
			boolFlags:  []string{"timestamps"},
		},
		{
			name:      "trailing flag is boolean",
			args:      []string{"--seed"},
			boolFlags: []string{"seed"},
		},
		{
			name:       "explicit boolean value",
			args:       []string{"--seed=true", "x"},
			bools:      []string{"seed"},
			positional: []string{"x"},
			boolFlags:  []string{"seed"},
		},
		{
			name:       "double dash ends flags",
			args:       []string{"set", "--", "ui.theme", "--dark"},
			positional: []string{"set", "ui.theme", "--dark"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)

			var got []string
			for i := 0; i < p.PositionalCount(); i++ {
				got = append(got, p.Positional(i))
			}
			if !reflect.DeepEqual(got, tt.positional) {
				t.Errorf("positional = %q, want %q", got, tt.positional)
			}
			for name, want := range tt.flags {
				if v := p.Flag(name); v != want {
					t.Errorf("Flag(%q) = %q, want %q", name, v, want)
				}
			}
			for _, name := range tt.boolFlags {
				if !p.BoolFlag(name) {
					t.Errorf("BoolFlag(%q) = false, want true", name)
				}
			}
		})
	}
}

func TestArgParser_LongAndShortNames(t *testing.T) {
	p := NewArgParser([]string{"-o", "dir"})
	if got := p.Flag("out", "o"); got != "dir" {
		t.Errorf("Flag(out, o) = %q, want %q", got, "dir")
	}
	if got := p.FlagOrDefault("format", "markdown"); got != "markdown" {
		t.Errorf("FlagOrDefault = %q, want markdown", got)
	}
	if !p.HasFlag("--o") {
		t.Error("HasFlag(--o) = false, want true")
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "ten"})
	_, err := p.FlagInt("limit", 5)
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("FlagInt error = %v, want *UsageError", err)
	}
	if n, err := NewArgParser(nil).FlagInt("limit", 5); err != nil || n != 5 {
		t.Errorf("FlagInt(missing) = %d, %v; want 5, nil", n, err)
	}
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		raw     []string
		check   func(t *testing.T, a Args)
		wantErr bool
	}{
		{name: "no args starts the TUI", argv: nil, want: CmdTUI},
		{name: "chat", argv: []string{"chat"}, want: CmdChat},
		{name: "ls alias", argv: []string{"ls", "--search", "fin"}, want: CmdConversations, raw: []string{"--search", "fin"}},
		{name: "show", argv: []string{"show", "c1"}, want: CmdShow, raw: []string{"c1"}},
		{name: "export", argv: []string{"export", "c1", "--format", "csv"}, want: CmdExport, raw: []string{"c1", "--format", "csv"}},
		{name: "serve", argv: []string{"serve", "--seed"}, want: CmdServe, raw: []string{"--seed"}},
		{name: "version flag", argv: []string{"--version"}, want: CmdVersion},
		{name: "help flag", argv: []string{"-h"}, want: CmdHelp},
		{
			name: "global flags anywhere",
			argv: []string{"show", "c1", "--json", "--user", "bob", "--api=http://x/api", "-q"},
			want: CmdShow,
			raw:  []string{"c1"},
			check: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet || a.UserID != "bob" || a.BaseURL != "http://x/api" {
					t.Errorf("Args = %+v", a)
				}
			},
		},
		{
			name: "config path",
			argv: []string{"--config", "/tmp/r.toml", "config", "path"},
			want: CmdConfig,
			raw:  []string{"path"},
			check: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/r.toml" {
					t.Errorf("ConfigPath = %q, want /tmp/r.toml", a.ConfigPath)
				}
			},
		},
		{name: "unknown command", argv: []string{"frobnicate"}, wantErr: true},
		{name: "missing flag value", argv: []string{"--user"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := ParseArgs(tt.argv)
			if tt.wantErr {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Fatalf("err = %v, want *UsageError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs() error = %v", err)
			}
			if cmd != tt.want {
				t.Errorf("command = %v, want %v", cmd, tt.want)
			}
			if len(tt.raw) > 0 && !reflect.DeepEqual(args.Raw, tt.raw) {
				t.Errorf("Raw = %q, want %q", args.Raw, tt.raw)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if got := CmdConversations.String(); got != "conversations" {
		t.Errorf("String() = %q, want conversations", got)
	}
	if got := Command(99).String(); got != "Command(99)" {
		t.Errorf("String() = %q, want Command(99)", got)
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usagef("x", "bad"), ExitUsageError},
		{"not found", &NotFoundError{Resource: "conversation", ID: "c9"}, ExitNotFoundError},
		{"backend not found", &backend.APIError{Op: "load", Status: 404}, ExitNotFoundError},
		{"unknown key", fmt.Errorf("wrap: %w", config.ErrUnknownKey), ExitNotFoundError},
		{"invalid config", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"unreachable", fmt.Errorf("list: %w", backend.ErrUnreachable), ExitNetworkError},
		{"server error", &backend.APIError{Op: "load", Status: 503}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestUsageError_Hint(t *testing.T) {
	err := usagef(showUsage, "missing conversation id")
	want := "missing conversation id\nUsage: " + showUsage
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
