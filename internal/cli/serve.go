// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The "serve" command runs the reference backend.
//
// Examples:
//
//	repgen serve                           In-memory store on 127.0.0.1:8787
//	repgen serve --seed                    With demo conversations
//	repgen serve --db ~/.repgen/repgen.db  Persistent SQLite store
//	repgen serve --dir ~/.repgen/data      One JSON file per conversation
//
// With server.openai_api_key (or OPENAI_API_KEY) set, messages that match no
// canned report are answered by the chat completion API.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/server"
)

// shutdownTimeout bounds the graceful shutdown after ctx is done.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the backend until ctx is canceled.
func HandleServe(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "seed", "memory")
	cfg := env.Config.Server

	addr := p.FlagOrDefault("addr", cfg.Addr)
	dbPath := p.FlagOrDefault("db", cfg.DBPath)
	dir := p.Flag("dir")
	if p.BoolFlag("memory") {
		dbPath, dir = "", ""
	}

	store, err := openStore(dbPath, dir)
	if err != nil {
		return err
	}

	userID := env.Config.API.UserID
	if err := prepareUser(ctx, store, userID, p.BoolFlag("seed") || cfg.Seed); err != nil {
		store.Close()
		return err
	}

	var fallback server.Responder
	if cfg.OpenAIAPIKey != "" {
		fallback = server.NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		log.Printf("SERVE_RESPONDER | kind=openai model=%q", cfg.OpenAIModel)
	}

	srv := server.NewServer(addr, store).
		WithResponder(server.NewKeywordResponder(fallback)).
		WithRateLimiter(server.DefaultRateLimiter())

	if !args.Quiet {
		fmt.Fprintf(env.Stderr, "%s http://%s%s (store: %s, user: %s)\n",
			SuccessStyle.Render("Serving"), addr, server.APIPrefix, storeName(dbPath, dir), userID)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		store.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// openStore opens a file store in dir, SQLite at path, or a memory store
// when both are empty.
func openStore(path, dir string) (server.Store, error) {
	switch {
	case dir != "":
		return server.OpenFileStore(dir)
	case path != "":
		return server.OpenSQLite(path)
	}
	return server.NewMemoryStore(), nil
}

// prepareUser makes sure userID exists. Demo data is only written into a
// store that did not know the user yet, so restarting with --seed on a
// SQLite file does not duplicate it.
func prepareUser(ctx context.Context, store server.Store, userID string, seed bool) error {
	_, err := store.User(ctx, userID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, server.ErrNotFound):
		return fmt.Errorf("failed to look up user: %w", err)
	case seed:
		return server.Seed(ctx, store, userID, time.Now())
	}
	return store.PutUser(ctx, backend.User{ID: userID, Name: userID})
}

func storeName(path, dir string) string {
	switch {
	case dir != "":
		return dir
	case path != "":
		return path
	}
	return "memory"
}
