// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// detectDark reports whether the terminal background is dark.
var detectDark = termenv.HasDarkBackground

// Theme holds every style the TUI renders with.
type Theme struct {
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	SidebarTitle   lipgloss.Style
	SidebarHeading lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarCursor  lipgloss.Style
	SidebarActive  lipgloss.Style
	SidebarNote    lipgloss.Style
	SearchPrompt   lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	Greeting       lipgloss.Style
	UserLabel      lipgloss.Style
	BotLabel       lipgloss.Style
	UserMessage    lipgloss.Style
	BotMessage     lipgloss.Style
	FailedMessage  lipgloss.Style
	LoadingMessage lipgloss.Style
	PendingMark    lipgloss.Style
	Timestamp      lipgloss.Style

	// ==========================================================================
	// TABLE STYLES
	// ==========================================================================

	TableTitle  lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableStripe lipgloss.Style
	TableBorder lipgloss.Style

	// ==========================================================================
	// COMPOSER STYLES
	// ==========================================================================

	Composer         lipgloss.Style
	ComposerFocused  lipgloss.Style
	ComposerDisabled lipgloss.Style
	ComposerPrompt   lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	ErrorBar    lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	Notice      lipgloss.Style
	Muted       lipgloss.Style
}

// NewTheme creates a theme for mode (dark, light or auto). Unknown modes
// are treated as auto.
func NewTheme(mode string) *Theme {
	mode = strings.ToLower(strings.TrimSpace(mode))
	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		mode = ModeAuto
		isDark = detectDark()
	}
	// AdaptiveColor resolves against the renderer's background flag.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
		Width:        80,
		Height:       24,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarFocused = t.Sidebar.BorderForeground(Cyan)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.SidebarHeading = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true).MarginTop(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SidebarCursor = lipgloss.NewStyle().Foreground(TextInverse).Background(Purple).Bold(true)
	t.SidebarActive = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.SidebarNote = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.SearchPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// Messages
	t.Greeting = lipgloss.NewStyle().Bold(true).Foreground(Purple).Padding(1, 0)
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.BotLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.UserMessage = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Cyan).
		PaddingLeft(1)
	t.BotMessage = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Purple).
		PaddingLeft(1)
	t.FailedMessage = t.BotMessage.Foreground(Rose).BorderForeground(Rose)
	t.LoadingMessage = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.PendingMark = lipgloss.NewStyle().Foreground(Amber)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	// Tables
	t.TableTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.TableHeader = lipgloss.NewStyle().Bold(true).Foreground(TableHeader)
	t.TableCell = lipgloss.NewStyle().Foreground(TextPrimary)
	t.TableStripe = lipgloss.NewStyle().Foreground(TextPrimary).Background(TableStripe)
	t.TableBorder = lipgloss.NewStyle().Foreground(Overlay)

	// Composer
	t.Composer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.ComposerFocused = t.Composer.BorderForeground(Cyan)
	t.ComposerDisabled = t.Composer.BorderForeground(TextMuted).Foreground(TextMuted)
	t.ComposerPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// Status
	t.ErrorBar = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim).Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.StatusValue = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Notice = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// SidebarWidth returns the sidebar column width for the current layout.
// Narrow terminals get no sidebar.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return 0
	case LayoutMedium:
		return 26
	default:
		return 34
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
