// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/repgen/internal/ui/styles"
	"github.com/jeranaias/repgen/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the coarse application status shown at the bottom left.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusThinking
	StatusCreating
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "Loading"
	case StatusThinking:
		return "Thinking"
	case StatusCreating:
		return "Creating"
	case StatusError:
		return "Error"
	default:
		return "Ready"
	}
}

// Icon pairs every status with a distinct shape.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.GlyphSuccess
	case StatusError:
		return styles.GlyphError
	default:
		return styles.GlyphPending
	}
}

// KeyHint is one shortcut shown on the right of the status bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the TUI.
type StatusBar struct {
	Width        int
	Status       Status
	Conversation string

	// Notice is a transient confirmation, e.g. "Copied".
	Notice string
	Hints  []KeyHint

	theme *styles.Theme
}

// NewStatusBar creates a status bar for theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetTheme swaps the theme.
func (b *StatusBar) SetTheme(theme *styles.Theme) {
	b.theme = theme
}

// View renders the bar exactly Width columns wide.
func (b *StatusBar) View() string {
	left := b.Status.Icon() + " " + b.Status.String()
	if b.Conversation != "" {
		left += "  " + util.TruncateWidth(b.Conversation, 30)
	}

	var right string
	if b.Notice != "" {
		right = b.theme.Notice.Render(styles.GlyphSuccess + " " + b.Notice)
	} else {
		hints := make([]string, 0, len(b.Hints))
		for _, h := range b.Hints {
			hints = append(hints, b.theme.StatusKey.Render(h.Key)+" "+b.theme.StatusValue.Render(h.Desc))
		}
		right = strings.Join(hints, "  ")
	}

	inner := b.Width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = inner - lipgloss.Width(left)
		if gap < 0 {
			left = util.TruncateWidth(left, inner)
			gap = 0
		}
	}
	return b.theme.StatusBar.Width(b.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// ERROR BAR COMPONENT
// =============================================================================

// RenderErrorBar renders the dismissable error line. An empty msg renders
// nothing.
func RenderErrorBar(theme *styles.Theme, msg string, width int) string {
	if msg == "" {
		return ""
	}
	suffix := "  (esc to dismiss)"
	text := util.TruncateWidth(msg, width-2-util.StringWidth(styles.GlyphError+" ")-util.StringWidth(suffix))
	return theme.ErrorBar.Width(width).Render(styles.GlyphError + " " + text + suffix)
}
