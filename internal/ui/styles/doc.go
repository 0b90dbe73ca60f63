// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors, spinners and lipgloss styles of the
repgen TUI.

# Colors

All colors are lipgloss.AdaptiveColor values. NewTheme fixes the background
flag from the configured mode ("dark", "light" or "auto", which asks the
terminal through termenv) so every adaptive color resolves consistently.

# Layout

The theme tracks the window size. Below 60 columns the sidebar is hidden;
between 60 and 100 it is 26 columns wide; wider terminals get 34.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	if w := theme.SidebarWidth(); w > 0 {
		...
	}
*/
package styles
