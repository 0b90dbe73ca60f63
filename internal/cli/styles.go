// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for batch commands and the REPL.
//
// Colours drop out automatically for piped output and under NO_COLOR
// because the lipgloss profile is set from GetColorProfile.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/repgen/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle heads a command's output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)

	// SectionStyle heads a group such as a history period.
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)

	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(22)
	ValueStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Emerald)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Rose)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// PromptStyle colours the REPL prompt.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)

	UserLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)
	BotLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
)

// RenderSeparator renders a rule of width columns, 60 by default.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return DimStyle.Render(strings.Repeat("─", width))
}

// RenderKeyValue renders one aligned "label value" line.
func RenderKeyValue(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
