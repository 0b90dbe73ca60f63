// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/config"
)

// Options configures Run.
type Options struct {
	// LogPath receives log output while the alt screen is active. Empty
	// keeps the current log destination.
	LogPath string

	// ConfigPath is watched for changes. Empty disables reloading.
	ConfigPath string

	// Mouse enables wheel scrolling of the message list.
	Mouse bool
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *assistant.Assistant, cfg *config.Config, opts Options) error {
	if opts.LogPath != "" {
		f, err := tea.LogToFile(opts.LogPath, "repgen")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(New(ctx, a, cfg), progOpts...)

	b := newStateBridge()
	unsubscribe := a.OnChange(b.publish)
	defer unsubscribe()
	go b.forward(ctx, func(s assistant.Snapshot) { p.Send(StateMsg{Snapshot: s}) })

	if opts.ConfigPath != "" {
		go func() {
			err := config.Watch(ctx, opts.ConfigPath, func(c *config.Config) {
				p.Send(ConfigChangedMsg{Config: c})
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", opts.ConfigPath, err)
			}
		}()
	}

	log.Printf("TUI_START | user=%s", cfg.API.UserID)
	_, err := p.Run()
	a.Close()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	log.Printf("TUI_EXIT")
	return nil
}

// =============================================================================
// STATE BRIDGE
// =============================================================================

// stateBridge hands snapshots from assistant goroutines to the program.
// OnChange may fire inside Update, where a blocking Send would deadlock, so
// publish never blocks and only the latest pending snapshot is kept.
type stateBridge struct {
	ch chan assistant.Snapshot
}

func newStateBridge() *stateBridge {
	return &stateBridge{ch: make(chan assistant.Snapshot, 1)}
}

func (b *stateBridge) publish(s assistant.Snapshot) {
	for {
		select {
		case b.ch <- s:
			return
		default:
		}
		select {
		case old := <-b.ch:
			if old.Version > s.Version {
				s = old
			}
		default:
		}
	}
}

func (b *stateBridge) forward(ctx context.Context, send func(assistant.Snapshot)) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-b.ch:
			send(s)
		}
	}
}
