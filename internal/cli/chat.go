// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat for shells where the TUI is not an option.
//
// Command: chat
//
// The REPL drives the same assistant the TUI does, so conversations created
// here show up in the sidebar and vice versa.
//
// Interactive commands:
//
//	/help, /h            Show the commands
//	/list [TEXT], /ls    List conversations, optionally filtered
//	/open N|ID           Open a conversation from the last /list
//	/new                 Start a new conversation
//	/rename TITLE        Rename the open conversation
//	/archive             Archive the open conversation
//	/export [csv|md|json]  Export the last table or the transcript
//	/copy                Copy the last reply to the clipboard
//	/reload              Reload the conversation list
//	/quit, /q            Exit
//	Ctrl+C               Cancel the request in flight, or exit at the prompt
//	Ctrl+D               Exit

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/clipboard"
	"github.com/jeranaias/repgen/internal/config"
	"github.com/jeranaias/repgen/internal/export"
	"github.com/jeranaias/repgen/internal/history"
	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/components"
	"github.com/jeranaias/repgen/internal/ui/styles"
)

// slashCommands feeds tab completion.
var slashCommands = []string{
	"/archive", "/copy", "/export", "/help", "/list", "/new", "/open", "/quit", "/reload", "/rename",
}

// =============================================================================
// INPUT
// =============================================================================

// LineReader reads one line of input.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatCLI is a LineReader with history and completion.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var out []string
		for _, cmd := range slashCommands {
			if strings.HasPrefix(cmd, strings.ToLower(input)) {
				out = append(out, cmd)
			}
		}
		return out
	})

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads a line and remembers it.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (c *ChatCLI) Close() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	return c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession is one REPL run.
type ChatSession struct {
	a      *assistant.Assistant
	in     LineReader
	out    io.Writer
	cfg    *config.Config
	theme  *styles.Theme
	list   *components.MessageList
	width  int
	quiet  bool
	listed []model.Conversation

	// interrupt derives the context of one request. Ctrl+C cancels it.
	interrupt func(ctx context.Context) (context.Context, context.CancelFunc)
}

// NewChatSession wires a session to a and the given input.
func NewChatSession(a *assistant.Assistant, cfg *config.Config, in LineReader, out io.Writer) *ChatSession {
	theme := styles.NewTheme(cfg.UI.Theme)
	width := GetTerminalWidth()
	list := components.NewMessageList(theme)
	list.Width = width
	list.ShowTimestamps = cfg.UI.ShowTimestamps
	return &ChatSession{
		a:     a,
		in:    in,
		out:   out,
		cfg:   cfg,
		theme: theme,
		list:  list,
		width: width,
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

// HandleChat runs the REPL on the terminal.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	a := assistant.New(NewBackend(env.Config), assistant.Options{
		UserID:            env.Config.API.UserID,
		ComposerMaxHeight: env.Config.UI.ComposerMaxHeight,
	})
	defer a.Close()

	in := NewChatCLI()
	defer in.Close()

	s := NewChatSession(a, env.Config, in, env.Stdout)
	s.quiet = args.Quiet
	return s.Run(ctx)
}

// Run loads the user and the conversation list, then reads input until
// /quit, Ctrl+C at the prompt or end of input.
func (s *ChatSession) Run(ctx context.Context) error {
	s.a.LoadUser(ctx)
	if err := s.a.LoadConversations(ctx); err != nil {
		s.printError(s.a.Snapshot().PanelError)
	}
	if !s.quiet {
		s.printWelcome()
	}

	for {
		input, err := s.in.Prompt(s.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
			return nil
		case strings.HasPrefix(input, "/"):
			if !s.handleSlashCommand(ctx, input) {
				return nil
			}
		default:
			s.send(ctx, input)
		}
		s.flushError()
	}
}

func (s *ChatSession) prompt() string {
	if conv, ok := s.a.Snapshot().Active(); ok {
		return PromptStyle.Render(truncateTitle(conv.DisplayTitle())+"> ")
	}
	return PromptStyle.Render("repgen> ")
}

func (s *ChatSession) printWelcome() {
	snap := s.a.Snapshot()
	fmt.Fprintln(s.out, TitleStyle.Render(snap.Greeting()))
	fmt.Fprintln(s.out, DimStyle.Render(`Ask for a report, e.g. "financial report". Type /help for commands.`))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printHelp() {
	rows := [][2]string{
		{"/list [TEXT]", "List conversations"},
		{"/open N|ID", "Open a conversation"},
		{"/new", "Start a new conversation"},
		{"/rename TITLE", "Rename the open conversation"},
		{"/archive", "Archive the open conversation"},
		{"/export [csv|md|json]", "Export the last table or the transcript"},
		{"/copy", "Copy the last reply"},
		{"/reload", "Reload the conversation list"},
		{"/quit", "Exit"},
	}
	for _, r := range rows {
		fmt.Fprintln(s.out, RenderKeyValue(r[0], r[1]))
	}
}

// =============================================================================
// MESSAGE EXCHANGE
// =============================================================================

// send runs one turn and prints the replies it produced.
func (s *ChatSession) send(ctx context.Context, text string) {
	before := s.a.Snapshot()
	from := len(before.Messages)
	if before.ActiveID == "" {
		from = 0
	}

	fmt.Fprintln(s.out, DimStyle.Render(components.ThinkingText))
	turnCtx, cancel := s.interrupt(ctx)
	err := s.a.SubmitText(turnCtx, text)
	cancel()
	if err != nil {
		log.Printf("CHAT_TURN_FAILED | error=%v", err)
	}

	after := s.a.Snapshot()
	if after.ActiveID != before.ActiveID {
		from = 0
	}
	for _, m := range after.Messages[min(from, len(after.Messages)):] {
		if m.Sender == model.SenderUser || m.Loading {
			continue
		}
		s.printMessage(m)
	}
}

func (s *ChatSession) printMessage(m model.Message) {
	if ColorsEnabled() {
		fmt.Fprintln(s.out, s.list.Render(m))
	} else {
		label := BotLabelStyle.Render(m.Sender.DisplayName())
		if m.Sender == model.SenderUser {
			label = UserLabelStyle.Render(m.Sender.DisplayName())
		}
		fmt.Fprintln(s.out, label)
		fmt.Fprintln(s.out, messageBody(m, s.width, s.theme))
	}
	fmt.Fprintln(s.out)
}

// flushError prints and dismisses the assistant's pending error.
func (s *ChatSession) flushError() {
	if msg := s.a.Snapshot().Error; msg != "" {
		s.printError(msg)
		s.a.DismissError()
	}
}

func (s *ChatSession) printError(msg string) {
	if msg != "" {
		fmt.Fprintf(s.out, "%s %s\n", ErrorStyle.Render(styles.GlyphError), msg)
	}
}

func (s *ChatSession) printNotice(format string, args ...any) {
	fmt.Fprintf(s.out, "%s %s\n", SuccessStyle.Render(styles.GlyphSuccess), fmt.Sprintf(format, args...))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs one command. It returns false to end the session.
func (s *ChatSession) handleSlashCommand(ctx context.Context, input string) bool {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "/help", "/h", "/?":
		s.printHelp()
	case "/quit", "/q", "/exit":
		return false
	case "/list", "/ls":
		s.listConversations(rest)
	case "/open", "/o":
		s.openConversation(ctx, rest)
	case "/new", "/n":
		if conv, err := s.a.CreateConversation(ctx); err == nil {
			s.printNotice("Started %s", conv.DisplayTitle())
		}
	case "/rename":
		s.rename(ctx, rest)
	case "/archive":
		s.archive(ctx)
	case "/export":
		s.export(rest)
	case "/copy":
		s.copyLast()
	case "/reload":
		if err := s.a.LoadConversations(ctx); err != nil {
			s.printError(s.a.Snapshot().PanelError)
		} else {
			s.listConversations("")
		}
	default:
		s.printError(fmt.Sprintf("Unknown command %s. Type /help for commands.", name))
	}
	return true
}

func (s *ChatSession) listConversations(query string) {
	snap := s.a.Snapshot()
	g := history.Group(snap.Conversations, now(), query)
	s.listed = g.Flatten()
	if len(s.listed) == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("No conversations."))
		return
	}

	n := 0
	for _, b := range g.Buckets {
		fmt.Fprintln(s.out, SectionStyle.Render(b.Period.Label()))
		for _, c := range b.Conversations {
			n++
			marker := " "
			if c.ID() == snap.ActiveID {
				marker = styles.GlyphCursor
			}
			fmt.Fprintf(s.out, "%s%3d  %s\n", marker, n, c.DisplayTitle())
		}
	}
	if g.Hidden > 0 {
		fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("%s %d older %s not shown",
			styles.GlyphHidden, g.Hidden, pluralize(g.Hidden, "conversation"))))
	}
}

func (s *ChatSession) openConversation(ctx context.Context, ref string) {
	if ref == "" {
		s.printError("Usage: /open N|ID")
		return
	}
	id := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(s.listed) {
			s.printError(fmt.Sprintf("No conversation %d in the last /list.", n))
			return
		}
		id = s.listed[n-1].ID()
	}

	if err := s.a.SelectConversation(ctx, id); err != nil {
		if errors.Is(err, assistant.ErrUnknownConversation) {
			s.printError("Unknown conversation " + ref + ".")
		}
		return
	}
	snap := s.a.Snapshot()
	if conv, ok := snap.Active(); ok {
		fmt.Fprintln(s.out, TitleStyle.Render(conv.DisplayTitle()))
	}
	if len(snap.Messages) == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("(no messages)"))
	}
	for _, m := range snap.Messages {
		s.printMessage(m)
	}
}

func (s *ChatSession) rename(ctx context.Context, title string) {
	snap := s.a.Snapshot()
	if snap.ActiveID == "" {
		s.printError("Open a conversation first.")
		return
	}
	if err := s.a.RenameConversation(ctx, snap.ActiveID, title); err != nil {
		return
	}
	s.printNotice("Renamed to %s", strings.TrimSpace(title))
}

func (s *ChatSession) archive(ctx context.Context) {
	conv, ok := s.a.Snapshot().Active()
	if !ok {
		s.printError("Open a conversation first.")
		return
	}
	answer, err := s.in.Prompt(fmt.Sprintf("Archive %q? [y/N] ", conv.DisplayTitle()))
	if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		fmt.Fprintln(s.out, DimStyle.Render("Cancelled."))
		return
	}
	if err := s.a.ArchiveConversation(ctx, conv.ID()); err == nil {
		s.printNotice("Archived %s", conv.DisplayTitle())
	}
}

func (s *ChatSession) export(format string) {
	snap := s.a.Snapshot()
	conv, ok := snap.Active()
	if !ok {
		s.printError("Open a conversation to export it.")
		return
	}

	dir := s.cfg.Export.Dir
	if dir == "" {
		dir = "."
	}

	var (
		path string
		err  error
	)
	switch strings.ToLower(format) {
	case "", "csv":
		table, found := snap.LastTable()
		if !found {
			s.printError("There is no table to export.")
			return
		}
		path, err = export.ExportTableAsCSV(table.Table, "", dir)
		if err == nil && path == "" {
			fmt.Fprintln(s.out, DimStyle.Render("The table has no rows; nothing was written."))
			return
		}
	case "md", "markdown", "json":
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		opts.IncludeTimestamps = s.cfg.UI.ShowTimestamps
		transcript := export.NewTranscript(conv, snap.Messages)
		if strings.EqualFold(format, "json") {
			path, err = export.ExportJSON(transcript, opts)
		} else {
			path, err = export.ExportMarkdown(transcript, opts)
		}
	default:
		s.printError(fmt.Sprintf("Unknown format %q. Use csv, md or json.", format))
		return
	}
	if err != nil {
		s.printError(capitalizeFirst(err.Error()) + ".")
		return
	}
	s.printNotice("Saved %s", path)
}

func (s *ChatSession) copyLast() {
	msg, ok := s.a.Snapshot().LastBotMessage()
	if !ok {
		s.printError("There is no reply to copy.")
		return
	}
	if err := clipboard.CopySummary(msg.Summary()); err != nil {
		s.printError("Could not copy to the clipboard: " + err.Error())
		return
	}
	s.printNotice("Copied to clipboard")
}

// =============================================================================
// HELPERS
// =============================================================================

func truncateTitle(title string) string {
	const maxRunes = 24
	r := []rune(title)
	if len(r) <= maxRunes {
		return title
	}
	return string(r[:maxRunes-1]) + styles.GlyphHidden
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
