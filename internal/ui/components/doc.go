// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the pieces of the repgen TUI: the conversation
sidebar, messages and report tables, the error bar and the status bar.

Components are plain structs with a View or Render method. They hold no
assistant state of their own; the chat model fills them from the latest
snapshot before every frame.

# Tables

RenderTable aligns columns by terminal width (go-runewidth), so wide
characters in cell values keep the grid straight. When the table is wider
than the available space the widest columns are shrunk and their cells
truncated with "...".

# Markdown

Bot text is rendered with glamour. MarkdownRenderer caches one renderer per
wrap width and falls back to the raw text when rendering fails.
*/
package components
