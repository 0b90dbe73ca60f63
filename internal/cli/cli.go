// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing and shared command plumbing for repgen.

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/config"
)

// Version information, overridden at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the subcommand to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdConversations
	CmdShow
	CmdExport
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:           "tui",
	CmdChat:          "chat",
	CmdConversations: "conversations",
	CmdShow:          "show",
	CmdExport:        "export",
	CmdServe:         "serve",
	CmdConfig:        "config",
	CmdVersion:       "version",
	CmdHelp:          "help",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Args holds the global flags and the arguments left for the command.
type Args struct {
	// ConfigPath replaces ~/.repgen/config.toml.
	ConfigPath string
	// UserID and BaseURL override the [api] settings for this run.
	UserID  string
	BaseURL string

	JSON    bool
	Quiet   bool
	Verbose bool
	NoMouse bool

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `repgen - terminal report assistant

Ask for financial, sales or inventory reports in a chat and export the
resulting tables.

Usage:
  repgen                          Start the TUI (default)
  repgen chat                     Line-based chat session
  repgen conversations, ls        List conversations by period
      --search TEXT               Only titles containing TEXT
  repgen show ID                  Print a conversation
      --timestamps                Include message times
  repgen export ID                Write a conversation to a file
      --format markdown|json|csv  Output format (default markdown)
      --out DIR                   Output directory
      --open                      Open the file when written
  repgen serve                    Run the reference backend
      --addr HOST:PORT            Listen address
      --db PATH                   SQLite file (default: in memory)
      --dir PATH                  JSON files, one per conversation
      --memory                    Ignore server.db_path
      --seed                      Create demo conversations
  repgen config [show|get|set|path|keys]
  repgen version
  repgen help

Global flags:
  --config PATH    Config file (default ~/.repgen/config.toml)
  --user ID        User whose conversations are shown
  --api URL        Backend API root
  --json           Machine-readable output
  -q, --quiet      Less output
  -v, --verbose    Log requests to stderr
  --no-mouse       Disable mouse support in the TUI

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// VersionData is the --json payload of `repgen version`.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// HandleVersion prints version information.
func HandleVersion(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "repgen version %s\n", Version)
	fmt.Fprintf(env.Stdout, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(env.Stdout, "  Build date: %s\n", BuildDate)
	return nil
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs splits argv into a command and its arguments. Global flags may
// appear anywhere.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, args, nil
	case "chat":
		return CmdChat, args, nil
	case "conversations", "ls", "list":
		return CmdConversations, args, nil
	case "show":
		return CmdShow, args, nil
	case "export":
		return CmdExport, args, nil
	case "serve", "server":
		return CmdServe, args, nil
	case "config":
		return CmdConfig, args, nil
	case "version", "--version":
		return CmdVersion, args, nil
	case "help", "-h", "--help":
		return CmdHelp, args, nil
	}
	return CmdHelp, args, &UsageError{
		Msg:  fmt.Sprintf("unknown command %q", remaining[0]),
		Hint: "Run 'repgen help' for the list of commands.",
	}
}

// parseGlobalFlags removes the global flags from argv.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	value := func(i *int, flag string) (string, error) {
		if *i+1 >= len(argv) {
			return "", &UsageError{Msg: flag + " requires a value"}
		}
		*i++
		return argv[*i], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		var err error

		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--no-mouse":
			args.NoMouse = true
		case arg == "--config":
			args.ConfigPath, err = value(&i, arg)
		case arg == "--user":
			args.UserID, err = value(&i, arg)
		case arg == "--api":
			args.BaseURL, err = value(&i, arg)
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--user="):
			args.UserID = strings.TrimPrefix(arg, "--user=")
		case strings.HasPrefix(arg, "--api="):
			args.BaseURL = strings.TrimPrefix(arg, "--api=")
		default:
			remaining = append(remaining, arg)
		}
		if err != nil {
			return nil, args, err
		}
	}
	return remaining, args, nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what every handler runs against.
type Env struct {
	Config *config.Config

	// ConfigPath is the file `config set` writes.
	ConfigPath string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// LoadEnv loads .env and the configuration named by args, then applies the
// --user and --api overrides.
func LoadEnv(args Args) (*Env, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	var (
		cfg *config.Config
		err error
	)
	switch {
	case args.ConfigPath == "":
		cfg, err = config.Load()
	case fileExists(path):
		cfg, err = config.LoadFromPath(path)
	default:
		cfg = config.Default()
		err = cfg.ApplyEnvOverrides()
	}
	if err != nil {
		return nil, err
	}

	if args.UserID != "" {
		cfg.API.UserID = args.UserID
	}
	if args.BaseURL != "" {
		cfg.API.BaseURL = args.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)

	return &Env{
		Config:     cfg,
		ConfigPath: path,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}, nil
}

// NewBackend returns an API client configured from cfg.
func NewBackend(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout()).
		WithRateLimit(cfg.API.RequestsPerSecond, 1).
		WithUserAgent("repgen/" + Version)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
