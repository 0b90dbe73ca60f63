// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"time"

	"github.com/jeranaias/repgen/internal/backend"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned for unknown users, conversations or archived
	// conversations addressed by id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for records that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists users, conversations and messages.
//
// ListConversations omits archived conversations and orders the rest by
// updated_at, newest first. AddMessage assigns a missing id and moves
// the conversation's updated_at forward.
type Store interface {
	User(ctx context.Context, id string) (backend.User, error)
	PutUser(ctx context.Context, user backend.User) error

	ListConversations(ctx context.Context, userID string) ([]backend.Conversation, error)
	Conversation(ctx context.Context, id string) (backend.Conversation, error)
	CreateConversation(ctx context.Context, conv backend.Conversation) (backend.Conversation, error)
	RenameConversation(ctx context.Context, id, title string, at time.Time) error
	ArchiveConversation(ctx context.Context, id string, at time.Time) error

	ListMessages(ctx context.Context, conversationID string) ([]backend.Message, error)
	AddMessage(ctx context.Context, msg backend.Message) (backend.Message, error)

	Close() error
}
