// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SENDER AND KIND
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the wire representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Report Assistant"
	default:
		return string(s)
	}
}

// ParseSender validates a wire sender value.
func ParseSender(s string) (Sender, error) {
	switch Sender(strings.ToLower(strings.TrimSpace(s))) {
	case SenderUser:
		return SenderUser, nil
	case SenderBot:
		return SenderBot, nil
	default:
		return "", fmt.Errorf("unknown sender %q", s)
	}
}

// Kind is the content kind of a message.
type Kind int

const (
	KindText Kind = iota
	KindTable
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	default:
		return "text"
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn in a conversation.
//
// Loading marks the transient placeholder shown while the bot is thinking and
// Failed marks the locally synthesized error reply. Neither is ever persisted.
type Message struct {
	Ref            Ref
	ConversationID string
	Sender         Sender
	Kind           Kind
	Text           string
	Table          *Table
	CreatedAt      time.Time

	Loading bool
	Failed  bool
}

// Reference implements Referenced.
func (m Message) Reference() Ref { return m.Ref }

// NewUserMessage returns an optimistic user message with a pending ref.
func NewUserMessage(conversationID, text string) Message {
	return Message{
		Ref:            Pending(),
		ConversationID: conversationID,
		Sender:         SenderUser,
		Kind:           KindText,
		Text:           text,
		CreatedAt:      time.Now(),
	}
}

// NewLoadingMessage returns the transient "bot is thinking" placeholder.
func NewLoadingMessage(conversationID string) Message {
	return Message{
		Ref:            Pending(),
		ConversationID: conversationID,
		Sender:         SenderBot,
		Kind:           KindText,
		Loading:        true,
		CreatedAt:      time.Now(),
	}
}

// NewErrorMessage returns a local bot message describing a failed turn.
func NewErrorMessage(conversationID string, err error) Message {
	text := "Sorry, I couldn't generate a response."
	if err != nil {
		text += " " + err.Error()
	}
	return Message{
		Ref:            Pending(),
		ConversationID: conversationID,
		Sender:         SenderBot,
		Kind:           KindText,
		Text:           text,
		Failed:         true,
		CreatedAt:      time.Now(),
	}
}

// IsTable reports whether the message carries a table payload.
func (m Message) IsTable() bool {
	return m.Kind == KindTable && m.Table != nil
}

// Summary returns the text a user would copy for this message: the body for
// text messages and the title for tables.
func (m Message) Summary() string {
	if m.IsTable() {
		if m.Table.Title != "" {
			return m.Table.Title
		}
	}
	return m.Text
}

// =============================================================================
// BOT REPLY
// =============================================================================

// BotReply is the raw answer of the bot endpoint.
type BotReply struct {
	Response    string
	Headers     []string
	Rows        [][]string
	ErrorDetail string
}

// HasData reports whether the reply carries tabular data.
func (r BotReply) HasData() bool {
	return len(r.Headers) > 0 || len(r.Rows) > 0
}

// Normalize turns a bot reply into an unsaved bot message.
//
// Replies with tabular data become table messages titled with the response
// text. Rows that do not line up with the headers demote the reply to text.
// An error detail is appended to the displayed text rather than replacing it.
func (r BotReply) Normalize(conversationID string) Message {
	msg := Message{
		Ref:            Pending(),
		ConversationID: conversationID,
		Sender:         SenderBot,
		Kind:           KindText,
		Text:           r.Response,
		CreatedAt:      time.Now(),
	}

	detail := strings.TrimSpace(r.ErrorDetail)
	if r.HasData() {
		table := &Table{Title: r.Response, Headers: r.Headers, Rows: r.Rows}
		if err := table.Validate(); err != nil {
			if detail == "" {
				detail = err.Error()
			} else {
				detail += "; " + err.Error()
			}
		} else {
			msg.Kind = KindTable
			msg.Table = table
		}
	}

	if detail != "" {
		msg.Text = appendDetail(msg.Text, detail)
		if msg.Table != nil {
			msg.Table.Title = msg.Text
		}
	}
	return msg
}

func appendDetail(text, detail string) string {
	if strings.TrimSpace(text) == "" {
		return "Error: " + detail
	}
	return text + "\n\nError: " + detail
}
