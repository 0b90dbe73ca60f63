// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"github.com/jeranaias/repgen/internal/model"
)

// =============================================================================
// STATE MACHINES
// =============================================================================

// PanelState is the state of the conversation list.
type PanelState int

const (
	PanelIdle PanelState = iota
	PanelLoading
	PanelError
)

// String returns the state name.
func (s PanelState) String() string {
	switch s {
	case PanelLoading:
		return "loading"
	case PanelError:
		return "error"
	default:
		return "idle"
	}
}

// ViewState is the state of the active conversation's message list.
type ViewState int

const (
	ViewIdle ViewState = iota
	ViewLoading
	ViewError
)

// String returns the state name.
func (s ViewState) String() string {
	switch s {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	default:
		return "idle"
	}
}

// TurnState is the progress of one message exchange.
type TurnState int

const (
	TurnIdle TurnState = iota
	TurnAwaitingUserSave
	TurnAwaitingBot
	TurnAwaitingBotSave
)

// String returns the state name.
func (s TurnState) String() string {
	switch s {
	case TurnAwaitingUserSave:
		return "awaiting-user-save"
	case TurnAwaitingBot:
		return "awaiting-bot"
	case TurnAwaitingBotSave:
		return "awaiting-bot-save"
	default:
		return "idle"
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// ComposerState is the visible state of the input box.
type ComposerState struct {
	Text   string
	Height int

	// Resets counts how many times the composer was cleared after a send.
	Resets int
}

// Snapshot is a copy of the assistant state. Slices are owned by the caller;
// tables inside messages are shared and must not be modified.
type Snapshot struct {
	// Version increases with every change. Observers may be called out of
	// order; the higher version is the newer state.
	Version uint64

	UserID   string
	UserName string

	Panel         PanelState
	PanelError    string
	Conversations []model.Conversation
	Creating      bool

	ActiveID string
	View     ViewState
	Messages []model.Message

	Turn     TurnState
	Composer ComposerState

	// Error is the latest dismissable failure.
	Error string
}

// Busy reports whether a bot turn is in progress.
func (s Snapshot) Busy() bool {
	return s.Turn != TurnIdle
}

// ComposerEnabled reports whether the user may type and send.
func (s Snapshot) ComposerEnabled() bool {
	return s.Turn == TurnIdle && !s.Creating
}

// Active returns the active conversation.
func (s Snapshot) Active() (model.Conversation, bool) {
	if s.ActiveID == "" {
		return model.Conversation{}, false
	}
	for _, c := range s.Conversations {
		if c.ID() == s.ActiveID {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Greeting returns the empty-state greeting.
func (s Snapshot) Greeting() string {
	if s.UserName == "" {
		return "Hello!"
	}
	return "Hello, " + s.UserName
}

// LastTable returns the most recent table message in the active conversation.
func (s Snapshot) LastTable() (model.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsTable() {
			return s.Messages[i], true
		}
	}
	return model.Message{}, false
}

// LastBotMessage returns the most recent settled bot reply.
func (s Snapshot) LastBotMessage() (model.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Sender == model.SenderBot && !m.Loading {
			return m, true
		}
	}
	return model.Message{}, false
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Conversations = append([]model.Conversation(nil), s.Conversations...)
	out.Messages = append([]model.Message(nil), s.Messages...)
	return out
}
