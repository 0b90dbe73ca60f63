// repgen - A terminal assistant that turns report requests into tables.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/cli"
	"github.com/jeranaias/repgen/internal/config"
	"github.com/jeranaias/repgen/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args, err := cli.Parse()
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}

	setupLogging(cmd, args)

	// Help and version work without a readable config.
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		env := &cli.Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
		return finish(cmd, args, cli.HandleVersion(env, args))
	}

	env, err := cli.LoadEnv(args)
	if err != nil {
		return finish(cmd, args, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, env, args)
	case cli.CmdChat:
		// The REPL handles Ctrl+C per request.
		stop()
		err = cli.HandleChat(context.Background(), env, args)
	case cli.CmdConversations:
		err = cli.HandleConversations(ctx, env, args)
	case cli.CmdShow:
		err = cli.HandleShow(ctx, env, args)
	case cli.CmdExport:
		err = cli.HandleExport(ctx, env, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(env, args)
	case cli.CmdServe:
		err = cli.HandleServe(ctx, env, args)
	}
	return finish(cmd, args, err)
}

func finish(cmd cli.Command, args cli.Args, err error) int {
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
	}
	return cli.GetExitCode(err)
}

// setupLogging sends the EVENT | key=value log to stderr for serve and for
// --verbose runs. The TUI redirects it to a file once it starts.
func setupLogging(cmd cli.Command, args cli.Args) {
	log.SetFlags(log.LstdFlags)
	if cmd == cli.CmdServe || args.Verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

func runTUI(ctx context.Context, env *cli.Env, args cli.Args) error {
	cfg := env.Config
	a := assistant.New(cli.NewBackend(cfg), assistant.Options{
		UserID:            cfg.API.UserID,
		ComposerMaxHeight: cfg.UI.ComposerMaxHeight,
	})
	defer a.Close()

	logPath, err := config.LogPath()
	if err == nil {
		err = os.MkdirAll(filepath.Dir(logPath), 0700)
	}
	if err != nil {
		log.Printf("LOG_PATH_UNAVAILABLE | error=%v", err)
		logPath = ""
	}

	return chat.Run(ctx, a, cfg, chat.Options{
		LogPath:    logPath,
		ConfigPath: env.ConfigPath,
		Mouse:      !args.NoMouse,
	})
}
