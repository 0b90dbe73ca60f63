// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/clipboard"
	"github.com/jeranaias/repgen/internal/export"
)

// noticeDuration is how long a status bar confirmation stays visible.
const noticeDuration = 3 * time.Second

// =============================================================================
// ASSISTANT COMMANDS
// =============================================================================

// run executes fn off the event loop and reports completion as opDoneMsg.
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := fn(ctx)
		if err != nil && !errors.Is(err, assistant.ErrStale) {
			log.Printf("TUI_OP_FAILED | op=%q error=%v", op, err)
		}
		return opDoneMsg{op: op, err: err}
	}
}

func (m Model) submitCmd() tea.Cmd {
	return m.run("submit", func(ctx context.Context) error { return m.a.Submit(ctx) })
}

func (m Model) selectCmd(id string) tea.Cmd {
	return m.run("select", func(ctx context.Context) error { return m.a.SelectConversation(ctx, id) })
}

func (m Model) createCmd() tea.Cmd {
	return m.run("create", func(ctx context.Context) error {
		_, err := m.a.CreateConversation(ctx)
		return err
	})
}

func (m Model) renameCmd(id, title string) tea.Cmd {
	return m.run("rename", func(ctx context.Context) error { return m.a.RenameConversation(ctx, id, title) })
}

func (m Model) archiveCmd(id string) tea.Cmd {
	return m.run("archive", func(ctx context.Context) error { return m.a.ArchiveConversation(ctx, id) })
}

// reloadCmd retries whatever failed to load: the list, the open
// conversation, or both.
func (m Model) reloadCmd() tea.Cmd {
	cmds := []tea.Cmd{
		m.run("load conversations", func(ctx context.Context) error { return m.a.LoadConversations(ctx) }),
	}
	if id := m.snap.ActiveID; id != "" && m.snap.View == assistant.ViewError {
		cmds = append(cmds, m.selectCmd(id))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// EXPORT AND CLIPBOARD COMMANDS
// =============================================================================

// exportCSVCmd writes the latest table of the open conversation.
func (m Model) exportCSVCmd() tea.Cmd {
	msg, ok := m.snap.LastTable()
	if !ok {
		return m.fail("There is no table to export.")
	}
	dir := m.cfg.Export.Dir
	return func() tea.Msg {
		path, err := export.ExportTableAsCSV(msg.Table, "", dir)
		switch {
		case err != nil:
			m.a.SetError("Could not export the table. " + err.Error())
			return opDoneMsg{op: "export csv", err: err}
		case path == "":
			return noticeMsg{text: "The table has no rows; nothing was written"}
		}
		return noticeMsg{text: "Saved " + path}
	}
}

// exportTranscriptCmd writes the open conversation as markdown.
func (m Model) exportTranscriptCmd() tea.Cmd {
	conv, ok := m.snap.Active()
	if !ok {
		return m.fail("Open a conversation to export it.")
	}
	transcript := export.NewTranscript(conv, m.snap.Messages)
	opts := export.DefaultOptions()
	if m.cfg.Export.Dir != "" {
		opts.OutputDir = m.cfg.Export.Dir
	}
	opts.IncludeTimestamps = m.cfg.UI.ShowTimestamps
	return func() tea.Msg {
		path, err := export.ExportMarkdown(transcript, opts)
		if err != nil {
			m.a.SetError("Could not export the conversation. " + err.Error())
			return opDoneMsg{op: "export transcript", err: err}
		}
		return noticeMsg{text: "Saved " + path}
	}
}

// copyCmd copies the summary of the latest bot reply.
func (m Model) copyCmd() tea.Cmd {
	msg, ok := m.snap.LastBotMessage()
	if !ok {
		return m.fail("There is no reply to copy.")
	}
	text := msg.Summary()
	return func() tea.Msg {
		if err := clipboard.CopySummary(text); err != nil {
			m.a.SetError(fmt.Sprintf("Could not copy to the clipboard: %v", err))
			return opDoneMsg{op: "copy", err: err}
		}
		return noticeMsg{text: "Copied to clipboard"}
	}
}

// fail surfaces msg in the error bar.
func (m Model) fail(msg string) tea.Cmd {
	return func() tea.Msg {
		m.a.SetError(msg)
		return opDoneMsg{op: "validate"}
	}
}

func clearNoticeAfter(id int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{id: id} })
}

func (m Model) startSpinner() tea.Cmd {
	return m.spinner.Tick
}
