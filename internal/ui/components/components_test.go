// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/repgen/internal/history"
	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

var ansiRE = regexp.MustCompile("\x1b\\[[0-9;?]*[a-zA-Z]")

func plain(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func financialTable() *model.Table {
	return &model.Table{
		Title:   "Financial Report",
		Headers: []string{"Category", "Amount (PHP)"},
		Rows: [][]string{
			{"Revenue", "1250000.5"},
			{"Expenses", "830000"},
			{"Net Income", "420000.5"},
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestFmtNumber(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1250000:  "1,250,000",
		-45000:   "-45,000",
		12345678: "12,345,678",
	}
	for n, want := range tests {
		if got := fmtNumber(n); got != want {
			t.Errorf("fmtNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		focus, height int
		want          []string
	}{
		{0, 10, lines},
		{0, 2, []string{"a", "b"}},
		{3, 2, []string{"c", "d"}},
		{4, 3, []string{"c", "d", "e"}},
		{2, 0, lines},
	}
	for _, tt := range tests {
		if got := window(lines, tt.focus, tt.height); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("window(focus=%d, height=%d) = %v, want %v", tt.focus, tt.height, got, tt.want)
		}
	}
}

// =============================================================================
// TABLE
// =============================================================================

func TestColumnWidths(t *testing.T) {
	headers := []string{"Category", "Amount (PHP)"}
	rows := [][]string{{"Net Income", "1250000.5"}}

	if got := ColumnWidths(headers, rows, 0); !reflect.DeepEqual(got, []int{10, 12}) {
		t.Errorf("ColumnWidths(unbounded) = %v, want [10 12]", got)
	}

	got := ColumnWidths(headers, rows, 20)
	if sum := got[0] + got[1] + 3; sum > 20 {
		t.Errorf("ColumnWidths(20) = %v, total %d exceeds 20", got, sum)
	}

	tiny := ColumnWidths(headers, rows, 4)
	for _, w := range tiny {
		if w != minColumnWidth {
			t.Errorf("ColumnWidths(4) = %v, want every column at %d", tiny, minColumnWidth)
		}
	}
}

func TestColumnWidths_WideRunes(t *testing.T) {
	got := ColumnWidths([]string{"品目"}, [][]string{{"売上高合計"}}, 0)
	if got[0] != 10 {
		t.Errorf("width = %d, want 10 for five wide runes", got[0])
	}
}

func TestRenderTable(t *testing.T) {
	out := plain(RenderTable(financialTable(), 0, styles.NewTheme("dark")))
	lines := strings.Split(out, "\n")

	if lines[0] != "Financial Report" {
		t.Errorf("title line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Category   │ Amount (PHP)") {
		t.Errorf("header line = %q", lines[1])
	}
	if !strings.Contains(out, "Revenue    │ 1250000.5") {
		t.Errorf("rows not aligned:\n%s", out)
	}
	if !strings.HasSuffix(out, "3 rows") {
		t.Errorf("footer missing:\n%s", out)
	}
}

func TestRenderTable_Truncates(t *testing.T) {
	table := &model.Table{
		Headers: []string{"Region", "Notes"},
		Rows:    [][]string{{"North", strings.Repeat("very long note ", 10)}},
	}
	out := plain(RenderTable(table, 30, styles.NewTheme("dark")))
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 30 {
			t.Errorf("line %q is %d columns, want <= 30", line, w)
		}
	}
	if !strings.Contains(out, "...") {
		t.Errorf("expected truncation marker:\n%s", out)
	}
}

func TestRenderTable_EmptyAndRagged(t *testing.T) {
	theme := styles.NewTheme("dark")
	if got := RenderTable(nil, 40, theme); got != "" {
		t.Errorf("RenderTable(nil) = %q, want empty", got)
	}
	if out := plain(RenderTable(&model.Table{Headers: []string{"A"}}, 40, theme)); !strings.Contains(out, "(no rows)") {
		t.Errorf("empty table = %q", out)
	}

	ragged := &model.Table{Headers: []string{"A", "B"}, Rows: [][]string{{"x"}}}
	if out := plain(RenderTable(ragged, 40, theme)); !strings.Contains(out, "x   │") {
		t.Errorf("short row should pad missing cells:\n%s", out)
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestMessageList_Greeting(t *testing.T) {
	l := NewMessageList(styles.NewTheme("dark"))
	out := plain(l.View(nil, "Hello, Crusch K."))
	if !strings.Contains(out, "Hello, Crusch K.") {
		t.Errorf("View(empty) = %q, want greeting", out)
	}
}

func TestMessageList_Kinds(t *testing.T) {
	l := NewMessageList(styles.NewTheme("dark"))
	l.Width = 60
	l.Spinner = "*"

	user := model.NewUserMessage("c1", "financial report")
	saved := user
	saved.Ref = model.Confirmed("m1")
	table := model.Message{Ref: model.Confirmed("m2"), Sender: model.SenderBot, Kind: model.KindTable, Text: "Financial Report", Table: financialTable()}

	tests := []struct {
		name string
		msg  model.Message
		want []string
		not  []string
	}{
		{"pending user", user, []string{"You", "sending", "financial report"}, nil},
		{"saved user", saved, []string{"You", "financial report"}, []string{"sending"}},
		{"loading", model.NewLoadingMessage("c1"), []string{"Report Assistant", "* " + ThinkingText}, nil},
		{"failed", model.NewErrorMessage("c1", errors.New("The report service is unavailable.")), []string{styles.GlyphError, "Sorry, I couldn't generate a response."}, nil},
		{"table", table, []string{"Financial Report", "Amount (PHP)", "1250000.5"}, nil},
		{"bot text", model.Message{Ref: model.Confirmed("m3"), Sender: model.SenderBot, Text: "Here is the **summary**."}, []string{"summary"}, []string{"**"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := plain(l.Render(tt.msg))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() = %q, want it to contain %q", out, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("Render() = %q, should not contain %q", out, n)
				}
			}
		})
	}
}

func TestMessageList_Timestamps(t *testing.T) {
	l := NewMessageList(styles.NewTheme("light"))
	msg := model.Message{Ref: model.Confirmed("m1"), Sender: model.SenderUser, Text: "hi",
		CreatedAt: time.Date(2026, time.March, 4, 9, 30, 0, 0, time.Local)}

	if out := plain(l.Render(msg)); strings.Contains(out, "Mar 4") {
		t.Errorf("timestamp shown while disabled: %q", out)
	}
	l.ShowTimestamps = true
	if out := plain(l.Render(msg)); !strings.Contains(out, "Mar 4 09:30") {
		t.Errorf("timestamp missing: %q", out)
	}
}

func TestMarkdownRenderer_CachesPerWidth(t *testing.T) {
	r := NewMarkdownRenderer(true)
	r.Render("# Title", 40)
	r.Render("# Other", 40)
	r.Render("# Title", 60)
	if len(r.renderers) != 2 {
		t.Errorf("cached %d renderers, want 2", len(r.renderers))
	}
	if got := r.Render("   ", 40); got != "   " {
		t.Errorf("blank text changed: %q", got)
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

var sidebarNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func sidebarFixture() history.Grouping {
	conv := func(id, title string, age time.Duration) model.Conversation {
		return model.Conversation{Ref: model.Confirmed(id), Title: title, UpdatedAt: sidebarNow.Add(-age)}
	}
	return history.Group([]model.Conversation{
		conv("a", "Financial report", time.Hour),
		conv("b", "Sales report", 3*24*time.Hour),
		conv("c", "Inventory", 12*24*time.Hour),
		conv("d", "Ancient", 90*24*time.Hour),
	}, sidebarNow, "")
}

func TestSidebar_View(t *testing.T) {
	s := NewSidebar(styles.NewTheme("dark"))
	s.Width, s.Height = 44, 30
	s.Grouping = sidebarFixture()
	s.ActiveID = "b"

	out := plain(s.View())
	for _, want := range []string{"Conversations", "Today", "Previous 7 Days", "Previous 30 Days",
		"Financial report", "Sales report", "Inventory", "1 older conversation not shown"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ancient") {
		t.Errorf("conversation outside the window rendered:\n%s", out)
	}
}

func TestSidebar_Selected(t *testing.T) {
	s := NewSidebar(styles.NewTheme("dark"))
	s.Grouping = sidebarFixture()

	s.Cursor = 1
	if c, ok := s.Selected(); !ok || c.ID() != "b" {
		t.Errorf("Selected() = %v, %v; want b", c.ID(), ok)
	}

	s.Cursor = 10
	s.ClampCursor()
	if s.Cursor != 2 {
		t.Errorf("ClampCursor() = %d, want 2", s.Cursor)
	}

	s.Grouping = history.Grouping{}
	s.ClampCursor()
	if _, ok := s.Selected(); ok || s.Cursor != 0 {
		t.Errorf("empty list: Cursor = %d, Selected ok = %v", s.Cursor, ok)
	}
}

func TestSidebar_States(t *testing.T) {
	s := NewSidebar(styles.NewTheme("dark"))
	s.Width, s.Height = 30, 10

	s.Loading = true
	if out := plain(s.View()); !strings.Contains(out, "Loading") {
		t.Errorf("loading view = %q", out)
	}

	s.Loading = false
	s.Error = "The report service could not be reached."
	if out := plain(s.View()); !strings.Contains(out, "r to retry") {
		t.Errorf("error view = %q", out)
	}

	s.Error = ""
	if out := plain(s.View()); !strings.Contains(out, "No conversations") {
		t.Errorf("empty view = %q", out)
	}
}

func TestSidebar_ScrollsToCursor(t *testing.T) {
	var convs []model.Conversation
	for i := 0; i < 30; i++ {
		convs = append(convs, model.Conversation{
			Ref:       model.Confirmed(string(rune('A' + i))),
			Title:     "Report " + string(rune('A'+i)),
			UpdatedAt: sidebarNow.Add(-time.Duration(i) * time.Minute),
		})
	}
	s := NewSidebar(styles.NewTheme("dark"))
	s.Width, s.Height = 30, 10
	s.Focused = true
	s.Grouping = history.Group(convs, sidebarNow, "")
	s.Cursor = 25

	out := plain(s.View())
	if !strings.Contains(out, "Report Z") {
		t.Errorf("cursor row not visible:\n%s", out)
	}
	if strings.Contains(out, "Report A") {
		t.Errorf("top rows should scroll away:\n%s", out)
	}
}

// =============================================================================
// STATUS AND ERROR BARS
// =============================================================================

func TestStatusBar(t *testing.T) {
	b := NewStatusBar(styles.NewTheme("dark"))
	b.Width = 80
	b.Status = StatusThinking
	b.Conversation = "financial report"
	b.Hints = []KeyHint{{"ctrl+n", "new"}, {"?", "help"}}

	out := plain(b.View())
	for _, want := range []string{styles.GlyphPending + " Thinking", "financial report", "ctrl+n new"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() = %q, want %q", out, want)
		}
	}
	if w := lipgloss.Width(out); w != 80 {
		t.Errorf("width = %d, want 80", w)
	}

	b.Notice = "Copied"
	if out := plain(b.View()); !strings.Contains(out, "Copied") || strings.Contains(out, "ctrl+n") {
		t.Errorf("notice should replace hints: %q", out)
	}

	b.Width = 12
	if w := lipgloss.Width(b.View()); w != 12 {
		t.Errorf("narrow width = %d, want 12", w)
	}
}

func TestRenderErrorBar(t *testing.T) {
	theme := styles.NewTheme("dark")
	if got := RenderErrorBar(theme, "", 80); got != "" {
		t.Errorf("empty message rendered %q", got)
	}
	out := plain(RenderErrorBar(theme, "The request timed out.", 80))
	if !strings.Contains(out, "The request timed out.") || !strings.Contains(out, "esc to dismiss") {
		t.Errorf("RenderErrorBar() = %q", out)
	}
}
