// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/config"
	"github.com/jeranaias/repgen/internal/model"
)

// =============================================================================
// STUB BACKEND
// =============================================================================

type stubBackend struct {
	mu        sync.Mutex
	convs     []model.Conversation
	msgs      map[string][]model.Message
	next      int
	createErr error
}

func newStubBackend() *stubBackend {
	t := time.Now()
	return &stubBackend{
		convs: []model.Conversation{
			{Ref: model.Confirmed("c1"), UserID: "u1", Title: "Sales pipeline", UpdatedAt: t.Add(-time.Hour)},
			{Ref: model.Confirmed("c2"), UserID: "u1", Title: "Inventory", UpdatedAt: t.Add(-48 * time.Hour)},
		},
		msgs: map[string][]model.Message{
			"c2": {
				{Ref: model.Confirmed("m1"), ConversationID: "c2", Sender: model.SenderUser, Text: "inventory levels"},
				{Ref: model.Confirmed("m2"), ConversationID: "c2", Sender: model.SenderBot, Text: "Stock is healthy."},
			},
		},
	}
}

func (s *stubBackend) id(prefix string) string {
	s.next++
	return fmt.Sprintf("%s%d", prefix, 100+s.next)
}

func (s *stubBackend) UserName(ctx context.Context, userID string) (string, error) {
	return "Crusch K.", nil
}

func (s *stubBackend) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Conversation(nil), s.convs...), nil
}

func (s *stubBackend) CreateConversation(ctx context.Context, userID string) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return model.Conversation{}, s.createErr
	}
	now := time.Now()
	c := model.Conversation{Ref: model.Confirmed(s.id("c")), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.convs = append([]model.Conversation{c}, s.convs...)
	return c, nil
}

func (s *stubBackend) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.msgs[conversationID]...), nil
}

func (s *stubBackend) SaveMessage(ctx context.Context, conversationID string, msg model.Message) (model.Message, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.convs, model.Confirmed(conversationID))
	if i < 0 {
		return model.Message{}, "", backend.ErrNotFound
	}
	msg.Ref = model.Confirmed(s.id("m"))
	s.msgs[conversationID] = append(s.msgs[conversationID], msg)
	title := ""
	if s.convs[i].Title == "" && msg.Sender == model.SenderUser {
		title = model.InferTitle(msg.Text)
		s.convs[i].Title = title
	}
	return msg, title, nil
}

func (s *stubBackend) RenameConversation(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.convs, model.Confirmed(conversationID))
	if i < 0 {
		return backend.ErrNotFound
	}
	s.convs[i].Title = title
	return nil
}

func (s *stubBackend) ArchiveConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	s.convs, ok = model.Remove(s.convs, model.Confirmed(conversationID))
	if !ok {
		return backend.ErrNotFound
	}
	return nil
}

func (s *stubBackend) BotResponse(ctx context.Context, conversationID, text string) (model.BotReply, error) {
	if strings.Contains(strings.ToLower(text), "empty") {
		return model.BotReply{Response: "Empty Report", Headers: []string{"Category", "Amount (PHP)"}}, nil
	}
	if strings.Contains(strings.ToLower(text), "financial") {
		return model.BotReply{
			Response: "Financial Report",
			Headers:  []string{"Category", "Amount (PHP)"},
			Rows:     [][]string{{"Revenue", "1250000.5"}, {"Expenses", "830000"}},
		}, nil
	}
	return model.BotReply{Response: "I can build financial or sales reports."}, nil
}

// =============================================================================
// HARNESS
// =============================================================================

func newTestModel(t *testing.T, sb *stubBackend, cfg *config.Config) Model {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.UI.Theme = "dark"
	a := assistant.New(sb, assistant.Options{UserID: "u1", ComposerMaxHeight: cfg.UI.ComposerMaxHeight})
	t.Cleanup(a.Close)

	m := New(context.Background(), a, cfg)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drain(t, m, m.Init())
}

// update applies msg and runs the commands it returns.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

// drain runs cmd and feeds the assistant results back into the model.
// Timers, spinner ticks and cursor blinks are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case opDoneMsg, noticeMsg, StateMsg:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func runCmd(c tea.Cmd) tea.Msg {
	out := make(chan tea.Msg, 1)
	go func() { out <- c() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

var ansiRE = regexp.MustCompile("\x1b\\[[0-9;?]*[a-zA-Z]")

func plain(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// =============================================================================
// TESTS
// =============================================================================

func TestModel_InitLoadsUserAndList(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	assert.Equal(t, "Hello, Crusch K.", m.Snapshot().Greeting())
	assert.Len(t, m.Snapshot().Conversations, 2)
	view := plain(m.View())
	assert.Contains(t, view, "Hello, Crusch K.")
	assert.Contains(t, view, "Sales pipeline")
	assert.Contains(t, view, ComposerPlaceholder)
}

func TestModel_SubmitCreatesConversation(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	m = typeText(t, m, "financial report")
	assert.Equal(t, "financial report", m.ComposerValue())
	m = press(t, m, tea.KeyEnter)

	snap := m.Snapshot()
	require.NotEmpty(t, snap.ActiveID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.SenderUser, snap.Messages[0].Sender)
	assert.True(t, snap.Messages[1].IsTable())
	assert.Equal(t, assistant.TurnIdle, snap.Turn)
	assert.Empty(t, m.ComposerValue(), "composer resets after a send")

	conv, ok := snap.Active()
	require.True(t, ok)
	assert.Equal(t, "financial report", conv.Title)

	view := plain(m.View())
	assert.Contains(t, view, "Financial Report")
	assert.Contains(t, view, "Amount (PHP)")
	assert.Contains(t, view, "1250000.5")
}

func TestModel_ComposerDisabledWhileSubmitting(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	m = typeText(t, m, "financial report")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.composerEnabled())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)
	assert.Equal(t, "financial report", m.ComposerValue(), "keys are ignored mid-turn")

	m = drain(t, m, cmd)
	assert.True(t, m.composerEnabled())
}

func TestModel_BlankSubmitIsIgnored(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	m = typeText(t, m, "   ")
	m = press(t, m, tea.KeyEnter)
	assert.Empty(t, m.Snapshot().ActiveID)
	assert.True(t, m.composerEnabled())
}

func TestModel_NewlineKeepsDraft(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	m = typeText(t, m, "line one")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "line two")

	assert.Equal(t, "line one\nline two", m.ComposerValue())
	assert.Equal(t, "line one\nline two", m.Snapshot().Composer.Text)
	assert.Equal(t, 2, m.Snapshot().Composer.Height)
	assert.Empty(t, m.Snapshot().ActiveID, "newline must not send")
}

func TestModel_SidebarSelect(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	m = press(t, m, tea.KeyTab)
	require.Equal(t, FocusSidebar, m.Focus())
	m = press(t, m, tea.KeyDown)
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, FocusComposer, m.Focus())
	assert.Equal(t, "c2", m.Snapshot().ActiveID)
	assert.Len(t, m.Snapshot().Messages, 2)
	assert.Contains(t, plain(m.View()), "Stock is healthy.")
}

func TestModel_SearchFilters(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "/")
	require.Equal(t, FocusSearch, m.Focus())

	m = typeText(t, m, "SALES")
	assert.Equal(t, 1, m.sidebar.Grouping.Len())
	assert.NotContains(t, plain(m.View()), "Inventory")

	m = press(t, m, tea.KeyEsc)
	assert.Equal(t, FocusSidebar, m.Focus())
	assert.Equal(t, 2, m.sidebar.Grouping.Len())
}

func TestModel_Rename(t *testing.T) {
	sb := newStubBackend()
	m := newTestModel(t, sb, nil)

	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "r")
	require.Equal(t, FocusRename, m.Focus())
	m = press(t, m, tea.KeyCtrlU)
	m = typeText(t, m, "Q3 close")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, FocusSidebar, m.Focus())
	i := model.IndexOf(m.Snapshot().Conversations, model.Confirmed("c1"))
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "Q3 close", m.Snapshot().Conversations[i].Title)
}

func TestModel_ArchiveNeedsConfirmation(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	m = press(t, m, tea.KeyTab)

	m = typeText(t, m, "d")
	assert.Contains(t, plain(m.View()), "archive \"Sales pipeline\"")
	m = typeText(t, m, "n")
	assert.Len(t, m.Snapshot().Conversations, 2, "any other key cancels")

	m = typeText(t, m, "d")
	m = typeText(t, m, "y")
	require.Len(t, m.Snapshot().Conversations, 1)
	assert.Equal(t, "c2", m.Snapshot().Conversations[0].ID())
}

func TestModel_ErrorBarAndDismiss(t *testing.T) {
	sb := newStubBackend()
	sb.createErr = backend.ErrUnreachable
	m := newTestModel(t, sb, nil)

	m = press(t, m, tea.KeyCtrlN)
	require.NotEmpty(t, m.Snapshot().Error)
	assert.Contains(t, plain(m.View()), "esc to dismiss")
	assert.Contains(t, plain(m.View()), "Could not create a conversation")

	m = press(t, m, tea.KeyEsc)
	assert.Empty(t, m.Snapshot().Error)
	assert.NotContains(t, plain(m.View()), "esc to dismiss")
}

func TestModel_ExportCSV(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	m := newTestModel(t, newStubBackend(), cfg)

	m = press(t, m, tea.KeyCtrlE)
	assert.Equal(t, "There is no table to export.", m.Snapshot().Error)
	m = press(t, m, tea.KeyEsc)

	m = typeText(t, m, "financial report")
	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyCtrlE)

	assert.Empty(t, m.Snapshot().Error)
	assert.Contains(t, m.notice, "Saved")

	files, err := filepath.Glob(filepath.Join(cfg.Export.Dir, "*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "Category,Amount (PHP)\nRevenue,1250000.5\nExpenses,830000", string(data))
}

func TestModel_ExportCSV_HeadersOnlyIsSilent(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	m := newTestModel(t, newStubBackend(), cfg)

	m = typeText(t, m, "empty report")
	m = press(t, m, tea.KeyEnter)
	_, ok := m.Snapshot().LastTable()
	require.True(t, ok)

	m = press(t, m, tea.KeyCtrlE)
	assert.Empty(t, m.Snapshot().Error)
	assert.Contains(t, m.notice, "nothing was written")

	files, err := filepath.Glob(filepath.Join(cfg.Export.Dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestModel_ExportTranscript(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	m := newTestModel(t, newStubBackend(), cfg)

	m = press(t, m, tea.KeyCtrlT)
	assert.Equal(t, "Open a conversation to export it.", m.Snapshot().Error)
	m = press(t, m, tea.KeyEsc)

	m = typeText(t, m, "financial report")
	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyCtrlT)

	files, err := filepath.Glob(filepath.Join(cfg.Export.Dir, "*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "| Category | Amount (PHP) |")
}

func TestModel_ConfigChanged(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	require.Contains(t, plain(m.View()), "Conversations")

	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.UI.SidebarVisible = false
	cfg.UI.ShowTimestamps = true
	m = update(t, m, ConfigChangedMsg{Config: cfg})

	assert.False(t, m.theme.IsDark)
	assert.True(t, m.messages.ShowTimestamps)
	assert.NotContains(t, plain(m.View()), "Conversations")
}

func TestModel_ToggleSidebar(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyCtrlB)

	assert.Equal(t, FocusComposer, m.Focus())
	assert.NotContains(t, plain(m.View()), "Conversations")

	m = press(t, m, tea.KeyTab)
	assert.Equal(t, FocusComposer, m.Focus(), "tab stays on the composer without a sidebar")
}

func TestModel_StaleSnapshotIgnored(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	current := m.Snapshot()

	old := current
	old.Version = current.Version - 1
	old.Conversations = nil
	m = update(t, m, StateMsg{Snapshot: old})

	assert.Len(t, m.Snapshot().Conversations, 2)
}

func TestModel_QuitClosesAssistant(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t, newStubBackend(), nil)

	m = typeText(t, m, "?")
	assert.Equal(t, "?", m.ComposerValue(), "? is text inside the composer")
	assert.False(t, m.showHelp)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.showHelp)
	assert.Contains(t, plain(m.View()), "newline")
}

// =============================================================================
// STATE BRIDGE
// =============================================================================

func TestStateBridge_KeepsLatest(t *testing.T) {
	b := newStateBridge()
	for v := uint64(1); v <= 3; v++ {
		b.publish(assistant.Snapshot{Version: v})
	}
	b.publish(assistant.Snapshot{Version: 2})

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan uint64, 4)
	go b.forward(ctx, func(s assistant.Snapshot) { got <- s.Version })

	select {
	case v := <-got:
		assert.Equal(t, uint64(3), v)
	case <-time.After(time.Second):
		t.Fatal("no snapshot forwarded")
	}
	cancel()
}

func TestKeyMap_Help(t *testing.T) {
	k := DefaultKeyMap()
	assert.NotEmpty(t, k.ShortHelp())
	n := 0
	for _, col := range k.FullHelp() {
		n += len(col)
	}
	assert.Equal(t, 20, n)
}
