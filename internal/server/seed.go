// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/model"
)

// DemoUser is the user created by Seed.
var DemoUser = backend.User{ID: "demo", Name: "Crusch K."}

type seedConversation struct {
	title    string
	age      time.Duration
	question string
}

var seedConversations = []seedConversation{
	{"Financial report", 2 * time.Hour, "financial report"},
	{"Regional sales", 3 * 24 * time.Hour, "sales report"},
	{"Stock check", 12 * 24 * time.Hour, "inventory report"},
	{"Last quarter close", 45 * 24 * time.Hour, "financial report"},
}

// Seed creates DemoUser (or a user with the given id) and a few conversations
// spread across the history buckets, answered by the keyword responder.
func Seed(ctx context.Context, store Store, userID string, now time.Time) error {
	user := DemoUser
	if userID != "" {
		user.ID = userID
	}
	if err := store.PutUser(ctx, user); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	responder := NewKeywordResponder(nil)
	for _, sc := range seedConversations {
		at := now.Add(-sc.age).UTC()
		conv, err := store.CreateConversation(ctx, backend.Conversation{
			UserID:    user.ID,
			Title:     sc.title,
			CreatedAt: at,
			UpdatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("seed conversation: %w", err)
		}

		if _, err := store.AddMessage(ctx, backend.Message{
			ConversationID: conv.ID,
			Sender:         model.SenderUser.String(),
			Text:           sc.question,
			CreatedAt:      at,
		}); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}

		resp, err := responder.Respond(ctx, backend.BotRequest{Message: sc.question, ConversationID: conv.ID})
		if err != nil {
			return fmt.Errorf("seed reply: %w", err)
		}
		reply, err := resp.ToModel()
		if err != nil {
			return fmt.Errorf("seed reply: %w", err)
		}
		req, err := backend.NewSaveMessageRequest(reply.Normalize(conv.ID))
		if err != nil {
			return fmt.Errorf("seed reply: %w", err)
		}
		if _, err := store.AddMessage(ctx, backend.Message{
			ConversationID: conv.ID,
			Sender:         req.Sender,
			Text:           req.Text,
			TableData:      req.TableData,
			CreatedAt:      at.Add(time.Second),
		}); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
	}
	return nil
}
