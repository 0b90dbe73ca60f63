// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// show.go - The "show" and "export" commands.
//
// Examples:
//
//	repgen show 3f2c...                  Print the conversation
//	repgen show 3f2c... --json           Transcript as JSON
//	repgen export 3f2c... --format csv   Last table as CSV
//	repgen export 3f2c... --out reports  Markdown into ./reports
//	repgen export 3f2c... --open         Open the file when written

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jeranaias/repgen/internal/export"
	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/components"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

const (
	showUsage   = "repgen show ID [--timestamps] [--json]"
	exportUsage = "repgen export ID [--format markdown|json|csv] [--out DIR] [--open]"
)

// openExport opens a written export in the default application.
var openExport = export.OpenFile

// ErrNoTable is returned by a CSV export of a conversation without tables.
var ErrNoTable = errors.New("conversation has no table to export")

// loadTranscript fetches the conversation and its messages.
func loadTranscript(ctx context.Context, env *Env, id string) (*export.Transcript, error) {
	client := NewBackend(env.Config)
	conv, err := findConversation(ctx, client, env.Config.API.UserID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := client.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.NewTranscript(conv, msgs), nil
}

// =============================================================================
// SHOW
// =============================================================================

// HandleShow prints one conversation.
func HandleShow(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "timestamps", "t")
	id := p.Positional(0)
	if id == "" {
		return usagef(showUsage, "missing conversation id")
	}

	t, err := loadTranscript(ctx, env, id)
	if err != nil {
		return err
	}

	if args.JSON {
		data, err := export.NewJSONExporter(nil).Export(t)
		if err != nil {
			return err
		}
		return WriteJSON(env.Stdout, append(data, '\n'))
	}

	timestamps := p.BoolFlag("timestamps", "t") || env.Config.UI.ShowTimestamps
	writeTranscript(env.Stdout, t, GetTerminalWidth(), timestamps, env.Config.UI.Theme)
	return nil
}

// writeTranscript prints a conversation for a terminal or a pipe. Colour
// output goes through the TUI's message renderer; plain output keeps bot
// text verbatim.
func writeTranscript(w io.Writer, t *export.Transcript, width int, timestamps bool, themeMode string) {
	theme := styles.NewTheme(themeMode)

	fmt.Fprintln(w, TitleStyle.Render(t.Conversation.DisplayTitle()))
	fmt.Fprintln(w, RenderSeparator(min(width, 60)))
	if len(t.Messages) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(no messages)"))
		return
	}

	if ColorsEnabled() {
		list := components.NewMessageList(theme)
		list.Width = width
		list.ShowTimestamps = timestamps
		fmt.Fprintln(w, list.View(t.Messages, ""))
		return
	}

	for i, m := range t.Messages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		label := m.Sender.DisplayName()
		if timestamps && !m.CreatedAt.IsZero() {
			label += " " + m.CreatedAt.Local().Format("Jan 2 15:04")
		}
		fmt.Fprintln(w, label)
		fmt.Fprintln(w, messageBody(m, width, theme))
	}
}

// messageBody renders the body of a message without the sender label.
func messageBody(m model.Message, width int, theme *styles.Theme) string {
	if m.IsTable() {
		return components.RenderTable(m.Table, width, theme)
	}
	return strings.TrimRight(m.Text, "\n")
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportData is the --json payload of `repgen export`.
type ExportData struct {
	ConversationID string `json:"conversation_id"`
	Format         string `json:"format"`
	Path           string `json:"path"`
}

// HandleExport writes a conversation to disk. The csv format writes the most
// recent table only.
func HandleExport(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "open", "timestamps")
	id := p.Positional(0)
	if id == "" {
		return usagef(exportUsage, "missing conversation id")
	}
	format := strings.ToLower(p.FlagOrDefault("format", "markdown"))
	dir := p.Flag("out", "o")
	if dir == "" {
		dir = env.Config.Export.Dir
	}
	if dir == "" {
		dir = "."
	}

	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.IncludeTimestamps = p.BoolFlag("timestamps") || env.Config.UI.ShowTimestamps

	var exporter export.Exporter
	if format != "csv" {
		var err error
		if exporter, err = export.ForFormat(format, opts); err != nil {
			return usagef(exportUsage, "%v", err)
		}
	}

	t, err := loadTranscript(ctx, env, id)
	if err != nil {
		return err
	}

	var path string
	if format == "csv" {
		path, err = exportLastTable(t, dir)
	} else {
		path, err = export.ExportToFile(t, exporter, opts)
	}
	if err != nil {
		return err
	}

	if p.BoolFlag("open") {
		if err := openExport(path); err != nil {
			log.Printf("EXPORT_OPEN_FAILED | path=%s error=%v", path, err)
			fmt.Fprintf(env.Stderr, "%s could not open %s: %v\n", WarningStyle.Render("!"), path, err)
		}
	}

	if args.JSON {
		return NewJSONResponse("export", ExportData{ConversationID: id, Format: format, Path: path}).Write(env.Stdout)
	}
	if args.Quiet {
		fmt.Fprintln(env.Stdout, path)
		return nil
	}
	fmt.Fprintf(env.Stdout, "%s %s\n", SuccessStyle.Render(styles.GlyphSuccess+" Saved"), path)
	return nil
}

// exportLastTable writes the newest table with rows in t.
func exportLastTable(t *export.Transcript, dir string) (string, error) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		m := t.Messages[i]
		if !m.IsTable() || len(m.Table.Rows) == 0 {
			continue
		}
		return export.ExportTableAsCSV(m.Table, "", dir)
	}
	return "", ErrNoTable
}
