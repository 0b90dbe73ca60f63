// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea program of the repgen TUI.

# Layout

	┌ Conversations ┐ messages (viewport)
	│ Today         │
	│ ▍ financial…  │
	│ Previous 7 …  │ ╭──────────────────────────╮
	│               │ │ ▍ Ask anything           │
	└───────────────┘ ╰──────────────────────────╯
	 ✓ Ready  financial report           ctrl+n new  ? help

# State

The model never owns conversation state. Every operation runs
*assistant.Assistant in a tea.Cmd; the assistant's OnChange observer is
bridged to Program.Send as a StateMsg, so placeholders and loading states
appear while the request is still outstanding. Each finished command also
refreshes the snapshot, which keeps the model usable without a program in
tests.

# Focus

Focus is on the composer, the sidebar, the search box or the rename box.
Tab switches between composer and sidebar. Esc dismisses the error bar
first, then backs out of search and rename.

# Keys

Enter sends. Alt+Enter or Ctrl+J inserts a newline; most terminals report
Shift+Enter as a plain Enter, so it is bound as well for the ones that do
not.
*/
package chat
