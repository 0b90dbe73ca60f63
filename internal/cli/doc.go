// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the repgen command line and implements every command
// except the TUI itself.
//
// # Key Types
//
//   - Command: the subcommand to run
//   - Args: global flags plus the raw arguments of the command
//   - ArgParser: flag and positional parsing shared by the commands
//   - Env: loaded configuration and the standard streams
//   - ChatSession: the line-based REPL behind `repgen chat`
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	env, err := cli.LoadEnv(args)
//	switch cmd {
//	case cli.CmdShow:
//	    err = cli.HandleShow(ctx, env, args)
//	// ...
//	}
//
// Handlers return errors and never exit. DisplayError and GetExitCode turn
// the error into output and an exit status. All commands accept --json and
// print a JSONResponse envelope, highlighted with chroma on a terminal.
package cli
