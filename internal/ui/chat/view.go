// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/repgen/internal/ui/components"
)

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var main []string
	main = append(main, m.viewport.View())
	if bar := components.RenderErrorBar(m.theme, m.snap.Error, m.viewport.Width); bar != "" {
		main = append(main, bar)
	}
	main = append(main, m.composerView())
	if m.showHelp {
		main = append(main, m.help.View(m.keys))
	}
	right := lipgloss.JoinVertical(lipgloss.Left, main...)

	body := right
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar.View())
}

func (m Model) composerView() string {
	style := m.theme.Composer
	switch {
	case !m.composerEnabled():
		style = m.theme.ComposerDisabled
	case m.focus == FocusComposer:
		style = m.theme.ComposerFocused
	}
	return style.Width(m.viewport.Width - 2).Render(m.composer.View())
}
