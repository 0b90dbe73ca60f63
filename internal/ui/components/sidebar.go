// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/repgen/internal/history"
	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/styles"
	"github.com/jeranaias/repgen/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar renders the grouped conversation list.
type Sidebar struct {
	Width   int
	Height  int
	Focused bool

	// Grouping is the filtered, bucketed list to show.
	Grouping history.Grouping

	// Cursor indexes Grouping.Flatten().
	Cursor   int
	ActiveID string

	// Search is the rendered search input, shown above the list when set.
	Search string

	Loading  bool
	Spinner  string
	Error    string
	Creating bool

	theme *styles.Theme
}

// NewSidebar creates a sidebar for theme.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{Width: 30, Height: 20, theme: theme}
}

// SetTheme swaps the theme.
func (s *Sidebar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// Selected returns the conversation under the cursor.
func (s *Sidebar) Selected() (model.Conversation, bool) {
	flat := s.Grouping.Flatten()
	if s.Cursor < 0 || s.Cursor >= len(flat) {
		return model.Conversation{}, false
	}
	return flat[s.Cursor], true
}

// ClampCursor keeps the cursor inside the list.
func (s *Sidebar) ClampCursor() {
	n := s.Grouping.Len()
	if s.Cursor >= n {
		s.Cursor = n - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := s.Width - 3
	if inner < 8 {
		inner = 8
	}

	head := []string{s.theme.SidebarTitle.Render("Conversations")}
	if s.Search != "" {
		head = append(head, s.Search)
	}
	if s.Creating {
		head = append(head, s.theme.PendingMark.Render(styles.GlyphPending+" creating..."))
	}

	body, focus := s.list(inner)
	height := s.Height - len(head)
	lines := append(head, window(body, focus, height)...)

	style := s.theme.Sidebar
	if s.Focused {
		style = s.theme.SidebarFocused
	}
	return style.Width(s.Width - 1).Height(s.Height).Render(strings.Join(lines, "\n"))
}

// list returns the body lines and the line index of the cursor.
func (s *Sidebar) list(inner int) ([]string, int) {
	switch {
	case s.Loading:
		return []string{s.theme.Muted.Render("Loading" + s.Spinner)}, 0
	case s.Error != "":
		return []string{
			s.theme.ErrorBar.Render(styles.GlyphError + " " + util.TruncateWidth(s.Error, inner-4)),
			s.theme.Muted.Render("ctrl+r to retry"),
		}, 0
	case s.Grouping.Len() == 0:
		lines := []string{s.theme.SidebarNote.Render("No conversations")}
		return append(lines, s.hiddenNote()...), 0
	}

	var (
		lines []string
		focus int
		index int
	)
	for _, b := range s.Grouping.Buckets {
		lines = append(lines, "", s.theme.SidebarHeading.UnsetMarginTop().Render(b.Period.Label()))
		for _, c := range b.Conversations {
			title := util.TruncateWidth(c.DisplayTitle(), inner-2)
			marker := "  "
			if c.ID() == s.ActiveID {
				marker = s.theme.SidebarActive.Render(styles.GlyphCursor) + " "
			}
			switch {
			case index == s.Cursor && s.Focused:
				focus = len(lines)
				lines = append(lines, marker+s.theme.SidebarCursor.Render(util.PadWidth(title, inner-2)))
			case c.ID() == s.ActiveID:
				lines = append(lines, marker+s.theme.SidebarActive.Render(title))
			default:
				lines = append(lines, marker+s.theme.SidebarItem.Render(title))
			}
			index++
		}
	}
	return append(lines, s.hiddenNote()...), focus
}

func (s *Sidebar) hiddenNote() []string {
	if s.Grouping.Hidden == 0 {
		return nil
	}
	return []string{"", s.theme.SidebarNote.Render(styles.GlyphHidden + " " + plural(s.Grouping.Hidden, "older conversation") + " not shown")}
}
