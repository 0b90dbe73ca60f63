// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"

	"github.com/jeranaias/repgen/internal/backend"
)

// Error variables for refused or superseded operations.
var (
	// ErrEmptyTitle is returned when renaming to a blank title.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTurnInProgress is returned when a list mutation is attempted while
	// a bot turn is outstanding.
	ErrTurnInProgress = errors.New("wait for the current response to finish")

	// ErrCreateInProgress is returned when a conversation is already being created.
	ErrCreateInProgress = errors.New("a conversation is already being created")

	// ErrUnknownConversation is returned for ids not in the loaded list.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrStale is returned when a result arrived after the user navigated
	// away. The result has been discarded.
	ErrStale = errors.New("superseded by a newer selection")
)

// Describe converts an operation error into a short sentence for the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, backend.ErrUnreachable):
		return "The report service could not be reached."
	case errors.Is(err, backend.ErrRateLimited):
		return "Too many requests. Try again in a moment."
	case errors.Is(err, backend.ErrUnavailable):
		return "The report service is unavailable."
	case errors.Is(err, backend.ErrNotFound):
		return "The conversation no longer exists."
	case errors.Is(err, backend.ErrInvalidResponse):
		return "The report service sent an unreadable response."
	default:
		return err.Error()
	}
}
