// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/jeranaias/repgen/internal/util"
)

// MaxTitleLength bounds titles inferred from message content.
const MaxTitleLength = 40

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a named, timestamped thread of messages owned by one user.
// Archived conversations are removed from the active list.
type Conversation struct {
	Ref       Ref
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Archived  bool
}

// Reference implements Referenced.
func (c Conversation) Reference() Ref { return c.Ref }

// ID returns the server id of the conversation.
func (c Conversation) ID() string { return c.Ref.ID() }

// DisplayTitle returns the title, falling back to one derived from the id.
func (c Conversation) DisplayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	id := c.Ref.ID()
	if id == "" {
		return "New conversation"
	}
	return "Conversation " + util.TruncateRunesNoEllipsis(id, 8)
}

// InferTitle derives a conversation title from the first line of a message.
func InferTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return ""
	}
	return util.TruncateRunes(line, MaxTitleLength)
}

// Touch moves UpdatedAt forward to t.
func (c *Conversation) Touch(t time.Time) {
	if t.After(c.UpdatedAt) {
		c.UpdatedAt = t
	}
}
