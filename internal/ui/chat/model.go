// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/config"
	"github.com/jeranaias/repgen/internal/ui/components"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

// ComposerPlaceholder is shown in the empty composer.
const ComposerPlaceholder = "Ask anything"

// Focus identifies the widget receiving keys.
type Focus int

const (
	FocusComposer Focus = iota
	FocusSidebar
	FocusSearch
	FocusRename
)

// Model is the Bubble Tea model of the TUI.
type Model struct {
	ctx  context.Context
	a    *assistant.Assistant
	cfg  *config.Config
	keys KeyMap

	// snap is the latest assistant state.
	snap assistant.Snapshot

	theme     *styles.Theme
	sidebar   *components.Sidebar
	messages  *components.MessageList
	statusBar *components.StatusBar

	composer textarea.Model
	search   textinput.Model
	rename   textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	focus       Focus
	showSidebar bool
	showHelp    bool
	query       string

	// renamingID is the conversation the rename box edits.
	renamingID string
	// archivingID awaits a y/n confirmation.
	archivingID string

	// submitting blocks the composer between Enter and the end of the turn.
	submitting bool
	resets     int

	spinning bool
	notice   string
	noticeID int

	width         int
	height        int
	composerWidth int
	ready         bool
}

// New creates the TUI model for a. cfg supplies UI and export settings.
func New(ctx context.Context, a *assistant.Assistant, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	theme := styles.NewTheme(cfg.UI.Theme)

	ta := textarea.New()
	ta.Placeholder = ComposerPlaceholder
	ta.ShowLineNumbers = false
	ta.Prompt = styles.GlyphCursor + " "
	ta.CharLimit = 0
	ta.SetHeight(assistant.DefaultComposerMinHeight)
	ta.FocusedStyle.CursorLine = theme.ComposerPrompt.UnsetBold().UnsetForeground()
	ta.FocusedStyle.Prompt = theme.ComposerPrompt
	ta.BlurredStyle.Prompt = theme.Muted
	// Enter is handled by the model; only the newline bindings reach the textarea.
	ta.KeyMap.InsertNewline.SetKeys("shift+enter", "alt+enter", "ctrl+j")
	ta.Focus()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search titles"
	search.PromptStyle = theme.SearchPrompt

	rename := textinput.New()
	rename.Prompt = "title: "
	rename.CharLimit = 200
	rename.PromptStyle = theme.SearchPrompt

	sp := spinner.New()
	sp.Spinner = styles.ThinkingSpinner
	sp.Style = theme.LoadingMessage

	m := Model{
		ctx:         ctx,
		a:           a,
		cfg:         cfg,
		keys:        DefaultKeyMap(),
		snap:        a.Snapshot(),
		theme:       theme,
		sidebar:     components.NewSidebar(theme),
		messages:    components.NewMessageList(theme),
		statusBar:   components.NewStatusBar(theme),
		composer:    ta,
		search:      search,
		rename:      rename,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		help:        help.New(),
		showSidebar: cfg.UI.SidebarVisible,
		width:       80,
		height:      24,
	}
	m.messages.ShowTimestamps = cfg.UI.ShowTimestamps
	m.resets = m.snap.Composer.Resets
	return m
}

// Init loads the user name and the conversation list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.run("load user", func(ctx context.Context) error { return m.a.LoadUser(ctx) }),
		m.run("load conversations", func(ctx context.Context) error { return m.a.LoadConversations(ctx) }),
		m.startSpinner(),
	)
}

// Focus returns the widget receiving keys.
func (m Model) Focus() Focus {
	return m.focus
}

// Snapshot returns the assistant state the model last rendered.
func (m Model) Snapshot() assistant.Snapshot {
	return m.snap
}

// ComposerValue returns the composer text.
func (m Model) ComposerValue() string {
	return m.composer.Value()
}

// composerEnabled reports whether keys may edit and send the draft.
func (m Model) composerEnabled() bool {
	return m.snap.ComposerEnabled() && !m.submitting
}

// needsSpinner reports whether anything on screen is loading.
func (m Model) needsSpinner() bool {
	return m.snap.Busy() || m.snap.Creating ||
		m.snap.Panel == assistant.PanelLoading || m.snap.View == assistant.ViewLoading
}
