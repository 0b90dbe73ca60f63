// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

// =============================================================================
// MESSAGE COMPONENT
// =============================================================================

// ThinkingText is shown next to the spinner while the bot is answering.
const ThinkingText = "Generating report..."

// MessageList renders the messages of the active conversation.
type MessageList struct {
	Width          int
	ShowTimestamps bool

	// Spinner is the current frame of the thinking animation.
	Spinner string

	theme    *styles.Theme
	markdown *MarkdownRenderer
}

// NewMessageList creates a message list for theme.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:    80,
		theme:    theme,
		markdown: NewMarkdownRenderer(theme.IsDark),
	}
}

// SetTheme swaps the theme and the markdown style.
func (l *MessageList) SetTheme(theme *styles.Theme) {
	l.theme = theme
	l.markdown = NewMarkdownRenderer(theme.IsDark)
}

// View renders msgs separated by blank lines. An empty conversation shows
// greeting instead.
func (l *MessageList) View(msgs []model.Message, greeting string) string {
	if len(msgs) == 0 {
		return l.theme.Greeting.Render(greeting) + "\n" +
			l.theme.Muted.Render("Ask for a report, e.g. \"financial report\" or \"sales report\".")
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, l.Render(m))
	}
	return strings.Join(parts, "\n\n")
}

// Render renders one message with its sender label.
func (l *MessageList) Render(m model.Message) string {
	return l.header(m) + "\n" + l.body(m)
}

func (l *MessageList) header(m model.Message) string {
	var label string
	if m.Sender == model.SenderUser {
		label = l.theme.UserLabel.Render(m.Sender.DisplayName())
	} else {
		label = l.theme.BotLabel.Render(m.Sender.DisplayName())
	}
	if m.Sender == model.SenderUser && m.Ref.IsPending() {
		label += " " + l.theme.PendingMark.Render(styles.GlyphPending+" sending")
	}
	if l.ShowTimestamps && !m.CreatedAt.IsZero() && !m.Loading {
		label += " " + l.theme.Timestamp.Render(m.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	return label
}

func (l *MessageList) body(m model.Message) string {
	inner := l.Width - 2
	if inner < 10 {
		inner = 10
	}

	switch {
	case m.Loading:
		return l.theme.LoadingMessage.Render(l.Spinner + " " + ThinkingText)
	case m.Failed:
		return l.theme.FailedMessage.Width(inner).Render(styles.GlyphError + " " + m.Text)
	case m.IsTable():
		return l.theme.BotMessage.Render(RenderTable(m.Table, inner, l.theme))
	case m.Sender == model.SenderUser:
		return l.theme.UserMessage.Width(inner).Render(m.Text)
	default:
		return l.theme.BotMessage.Render(l.markdown.Render(m.Text, inner-1))
	}
}
