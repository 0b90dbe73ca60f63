// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// ThinkingSpinner animates the placeholder shown while the bot is answering.
var ThinkingSpinner = spinner.Spinner{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    time.Second / 12,
}

// LoadingSpinner animates list and message loads.
var LoadingSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// Status glyphs. Each state pairs a shape with its color.
const (
	GlyphError   = "✗"
	GlyphSuccess = "✓"
	GlyphPending = "○"
	GlyphCursor  = "▍"
	GlyphHidden  = "…"
)
