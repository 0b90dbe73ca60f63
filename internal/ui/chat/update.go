// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/history"
	"github.com/jeranaias/repgen/internal/ui/components"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

// now is the clock used for grouping the sidebar.
var now = time.Now

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one Bubble Tea message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case StateMsg:
		return m.applySnapshot(msg.Snapshot)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case noticeMsg:
		m.noticeID++
		m.notice = msg.text
		m.refresh()
		return m, clearNoticeAfter(m.noticeID)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.refresh()
		}
		return m, nil

	case ConfigChangedMsg:
		m.applyConfig(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.needsSpinner() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.spinning = true
		m.refresh()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and other widget messages.
	var cmd tea.Cmd
	switch m.focus {
	case FocusComposer:
		m.composer, cmd = m.composer.Update(msg)
	case FocusSearch:
		m.search, cmd = m.search.Update(msg)
	case FocusRename:
		m.rename, cmd = m.rename.Update(msg)
	}
	return m, cmd
}

// applySnapshot renders s unless a newer state was already applied.
func (m Model) applySnapshot(s assistant.Snapshot) (tea.Model, tea.Cmd) {
	if s.Version < m.snap.Version {
		return m, nil
	}
	m.snap = s
	if s.Composer.Resets != m.resets {
		m.resets = s.Composer.Resets
		m.composer.Reset()
	}
	m.layout()

	if m.needsSpinner() && !m.spinning {
		m.spinning = true
		return m, m.startSpinner()
	}
	return m, nil
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.op {
	case "submit":
		m.submitting = false
	case "create":
		if msg.err == nil {
			m.setFocus(FocusComposer)
		}
	case "rename":
		if msg.err == nil {
			m.setFocus(FocusSidebar)
		}
	}
	return m.applySnapshot(m.a.Snapshot())
}

// applyConfig picks up settings that can change while running.
func (m *Model) applyConfig(msg ConfigChangedMsg) {
	if msg.Config == nil {
		return
	}
	prev := m.cfg
	m.cfg = msg.Config
	if prev == nil || prev.UI.Theme != m.cfg.UI.Theme {
		m.theme = styles.NewTheme(m.cfg.UI.Theme)
		m.sidebar.SetTheme(m.theme)
		m.messages.SetTheme(m.theme)
		m.statusBar.SetTheme(m.theme)
	}
	m.messages.ShowTimestamps = m.cfg.UI.ShowTimestamps
	if prev == nil || prev.UI.SidebarVisible != m.cfg.UI.SidebarVisible {
		m.showSidebar = m.cfg.UI.SidebarVisible
	}
	m.layout()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.a.Close()
		return m, tea.Quit
	}

	// A pending archive takes exactly one answer.
	if m.archivingID != "" {
		id := m.archivingID
		m.archivingID = ""
		m.refresh()
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.archiveCmd(id)
		}
		return m, nil
	}

	switch m.focus {
	case FocusSearch:
		return m.handleSearchKey(msg)
	case FocusRename:
		return m.handleRenameKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		if m.snap.Error != "" {
			m.a.DismissError()
			return m.applySnapshot(m.a.Snapshot())
		}
		if m.focus == FocusSidebar {
			m.setFocus(FocusComposer)
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m, m.createCmd()

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusComposer && m.sidebarVisible() {
			m.setFocus(FocusSidebar)
		} else {
			m.setFocus(FocusComposer)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.focus == FocusSidebar {
			m.setFocus(FocusComposer)
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadCmd()

	case key.Matches(msg, m.keys.ExportCSV):
		return m, m.exportCSVCmd()

	case key.Matches(msg, m.keys.ExportTranscript):
		return m, m.exportTranscriptCmd()

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case msg.String() == "f1", m.focus != FocusComposer && key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleComposerKey(msg)
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.composerEnabled() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) && !key.Matches(msg, m.keys.Newline) {
		text := m.composer.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.a.SetDraft(text)
		m.submitting = true
		m.snap = m.a.Snapshot()
		m.refresh()
		return m, tea.Batch(m.submitCmd(), m.startSpinner())
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.a.SetDraft(m.composer.Value())
	m.snap = m.a.Snapshot()
	m.layout()
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebar.Cursor > 0 {
			m.sidebar.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.sidebar.Cursor++
		m.sidebar.ClampCursor()
	case key.Matches(msg, m.keys.Select):
		if c, ok := m.sidebar.Selected(); ok {
			m.setFocus(FocusComposer)
			if c.ID() != m.snap.ActiveID {
				return m, tea.Batch(m.selectCmd(c.ID()), m.startSpinner())
			}
		}
	case key.Matches(msg, m.keys.Search):
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.setFocus(FocusSearch)
	case key.Matches(msg, m.keys.Rename):
		if c, ok := m.sidebar.Selected(); ok {
			m.renamingID = c.ID()
			m.rename.SetValue(c.DisplayTitle())
			m.rename.CursorEnd()
			m.setFocus(FocusRename)
		}
	case key.Matches(msg, m.keys.Archive):
		if c, ok := m.sidebar.Selected(); ok {
			m.archivingID = c.ID()
		}
	case msg.String() == "n":
		return m, m.createCmd()
	}
	m.refresh()
	return m, nil
}

// handleSearchKey filters the list as the user types. Enter keeps the
// filter, Esc clears it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.setFocus(FocusSidebar)
		return m, nil
	case tea.KeyEsc:
		m.query = ""
		m.search.SetValue("")
		m.setFocus(FocusSidebar)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.sidebar.Cursor = 0
	m.refresh()
	return m, cmd
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		id, title := m.renamingID, m.rename.Value()
		m.renamingID = ""
		m.setFocus(FocusSidebar)
		return m, m.renameCmd(id, title)
	case tea.KeyEsc:
		m.renamingID = ""
		m.setFocus(FocusSidebar)
		return m, nil
	}

	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

// setFocus moves keyboard focus and blurs everything else.
func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.composer.Blur()
	m.search.Blur()
	m.rename.Blur()
	switch f {
	case FocusComposer:
		m.composer.Focus()
	case FocusSearch:
		m.search.Focus()
	case FocusRename:
		m.rename.Focus()
	}
	m.refresh()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) sidebarVisible() bool {
	return m.showSidebar && m.theme.SidebarWidth() > 0
}

// layout sizes every widget for the window and refreshes their content.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)

	sideW := 0
	if m.sidebarVisible() {
		sideW = m.theme.SidebarWidth()
	}
	mainW := m.width - sideW
	if mainW < 20 {
		mainW = 20
	}

	composerW := mainW - 4
	if composerW < 10 {
		composerW = 10
	}
	if m.composerWidth != composerW {
		m.composerWidth = composerW
		m.composer.SetWidth(composerW)
		m.a.SetComposerWidth(composerW - lipgloss.Width(m.composer.Prompt))
		m.snap = m.a.Snapshot()
	}
	height := m.snap.Composer.Height
	if maxH := m.cfg.UI.ComposerMaxHeight; maxH > 0 && height > maxH {
		height = maxH
	}
	m.composer.SetHeight(height)

	chrome := height + 2 + 1 // composer border and status bar
	if m.snap.Error != "" {
		chrome++
	}
	if m.showHelp {
		m.help.Width = mainW
		chrome += strings.Count(m.help.View(m.keys), "\n") + 1
	}
	vpH := m.height - chrome
	if vpH < 3 {
		vpH = 3
	}

	m.viewport.Width = mainW
	m.viewport.Height = vpH
	m.sidebar.Width = sideW
	m.sidebar.Height = m.height - 1
	m.messages.Width = mainW - 1
	m.statusBar.Width = m.width
	m.search.Width = sideW - 6
	m.rename.Width = sideW - 10

	m.refresh()
}

// refresh copies the snapshot into the components.
func (m *Model) refresh() {
	s := m.snap

	m.sidebar.Grouping = history.Group(s.Conversations, now(), m.query)
	m.sidebar.ActiveID = s.ActiveID
	m.sidebar.Focused = m.focus == FocusSidebar || m.focus == FocusSearch || m.focus == FocusRename
	m.sidebar.Loading = s.Panel == assistant.PanelLoading && len(s.Conversations) == 0
	m.sidebar.Spinner = m.spinner.View()
	m.sidebar.Creating = s.Creating
	m.sidebar.Error = ""
	if s.Panel == assistant.PanelError {
		m.sidebar.Error = s.PanelError
	}
	switch {
	case m.focus == FocusRename:
		m.sidebar.Search = m.rename.View()
	case m.focus == FocusSearch || m.query != "":
		m.sidebar.Search = m.search.View()
	default:
		m.sidebar.Search = ""
	}
	m.sidebar.ClampCursor()

	m.messages.Spinner = m.spinner.View()
	atBottom := m.viewport.AtBottom() || m.viewport.TotalLineCount() <= m.viewport.Height
	m.viewport.SetContent(m.conversationView())
	if atBottom || s.Busy() {
		m.viewport.GotoBottom()
	}

	m.statusBar.Status = m.status()
	m.statusBar.Conversation = ""
	if c, ok := s.Active(); ok {
		m.statusBar.Conversation = c.DisplayTitle()
	}
	m.statusBar.Notice = m.notice
	m.statusBar.Hints = m.hints()
}

func (m Model) conversationView() string {
	s := m.snap
	switch s.View {
	case assistant.ViewLoading:
		return m.theme.LoadingMessage.Render(m.spinner.View() + " Loading messages")
	case assistant.ViewError:
		return m.theme.Muted.Render("Messages could not be loaded. Press ctrl+r to retry.")
	}
	return m.messages.View(s.Messages, s.Greeting())
}

func (m Model) status() components.Status {
	s := m.snap
	switch {
	case s.Error != "":
		return components.StatusError
	case s.Busy():
		return components.StatusThinking
	case s.Creating:
		return components.StatusCreating
	case s.Panel == assistant.PanelLoading || s.View == assistant.ViewLoading:
		return components.StatusLoading
	default:
		return components.StatusReady
	}
}

func (m Model) hints() []components.KeyHint {
	if m.archivingID != "" {
		title := m.archivingID
		if c, ok := m.sidebar.Selected(); ok {
			title = c.DisplayTitle()
		}
		return []components.KeyHint{{Key: "y", Desc: "archive \"" + title + "\""}, {Key: "any key", Desc: "cancel"}}
	}
	switch m.focus {
	case FocusSidebar:
		return []components.KeyHint{{Key: "enter", Desc: "open"}, {Key: "/", Desc: "search"}, {Key: "r", Desc: "rename"}, {Key: "d", Desc: "archive"}, {Key: "tab", Desc: "composer"}}
	case FocusSearch:
		return []components.KeyHint{{Key: "enter", Desc: "keep filter"}, {Key: "esc", Desc: "clear"}}
	case FocusRename:
		return []components.KeyHint{{Key: "enter", Desc: "save"}, {Key: "esc", Desc: "cancel"}}
	}
	return []components.KeyHint{{Key: "enter", Desc: "send"}, {Key: "ctrl+n", Desc: "new"}, {Key: "tab", Desc: "sidebar"}, {Key: "f1", Desc: "help"}}
}
