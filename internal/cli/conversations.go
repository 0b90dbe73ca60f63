// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations.go - The "conversations" command.
//
// Command: conversations
// Aliases: ls, list
//
// Examples:
//
//	repgen conversations                 Group by Today / Previous 7 / 30 days
//	repgen ls --search financial         Case-insensitive title filter
//	repgen ls --json                     Machine-readable listing

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/history"
	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/styles"
	"github.com/jeranaias/repgen/internal/util"
)

const conversationsUsage = "repgen conversations [--search TEXT] [--json]"

// ConversationJSON is one entry of the --json listing.
type ConversationJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationsData is the --json payload of `repgen conversations`.
type ConversationsData struct {
	UserID        string             `json:"user_id"`
	Conversations []ConversationJSON `json:"conversations"`
	// Hidden counts conversations older than the history window.
	Hidden int `json:"hidden"`
}

// HandleConversations lists the user's conversations grouped by period.
func HandleConversations(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	if p.PositionalCount() > 0 {
		return usagef(conversationsUsage, "unexpected argument %q", p.Positional(0))
	}
	query := p.Flag("search", "s")

	client := NewBackend(env.Config)
	userID := env.Config.API.UserID
	convs, err := client.ListConversations(ctx, userID)
	if err != nil {
		return err
	}
	grouping := history.Group(convs, now(), query)

	if args.JSON {
		data := ConversationsData{UserID: userID, Conversations: []ConversationJSON{}, Hidden: grouping.Hidden}
		for _, b := range grouping.Buckets {
			for _, c := range b.Conversations {
				data.Conversations = append(data.Conversations, ConversationJSON{
					ID:        c.ID(),
					Title:     c.DisplayTitle(),
					Period:    b.Period.Label(),
					CreatedAt: c.CreatedAt,
					UpdatedAt: c.UpdatedAt,
				})
			}
		}
		return NewJSONResponse("conversations", data).Write(env.Stdout)
	}

	out := env.Stdout
	if !args.Quiet {
		fmt.Fprintln(out, TitleStyle.Render("Conversations for "+displayUser(ctx, client, userID)))
	}
	if grouping.Len() == 0 {
		if query != "" {
			fmt.Fprintf(out, "No conversations match %q.\n", query)
		} else {
			fmt.Fprintln(out, "No conversations yet. Start one with 'repgen chat'.")
		}
	}

	idWidth := 0
	for _, c := range grouping.Flatten() {
		idWidth = max(idWidth, util.StringWidth(c.ID()))
	}
	for _, b := range grouping.Buckets {
		fmt.Fprintln(out)
		fmt.Fprintln(out, SectionStyle.Render(b.Period.Label()))
		for _, c := range b.Conversations {
			fmt.Fprintf(out, "  %s  %s  %s\n",
				DimStyle.Render(util.PadWidth(c.ID(), idWidth)),
				c.DisplayTitle(),
				DimStyle.Render(formatUpdated(c)))
		}
	}
	if grouping.Hidden > 0 && !args.Quiet {
		fmt.Fprintln(out)
		fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("%s %d older %s not shown",
			styles.GlyphHidden, grouping.Hidden, pluralize(grouping.Hidden, "conversation"))))
	}
	return nil
}

// displayUser returns the user's name, or the id when it cannot be loaded.
func displayUser(ctx context.Context, client *backend.Client, userID string) string {
	name, err := client.UserName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}

// findConversation looks id up among the user's active conversations.
func findConversation(ctx context.Context, client *backend.Client, userID, id string) (model.Conversation, error) {
	convs, err := client.ListConversations(ctx, userID)
	if err != nil {
		return model.Conversation{}, err
	}
	for _, c := range convs {
		if c.ID() == id && !c.Archived {
			return c, nil
		}
	}
	return model.Conversation{}, &NotFoundError{Resource: "conversation", ID: id}
}

func formatUpdated(c model.Conversation) string {
	if c.UpdatedAt.IsZero() {
		return ""
	}
	return c.UpdatedAt.Local().Format("Jan 2 15:04")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
