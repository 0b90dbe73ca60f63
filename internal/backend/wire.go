// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"log"
	"time"

	"github.com/jeranaias/repgen/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// User is the display-name response.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Conversation is the wire form of a conversation.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title,omitempty"`
}

// Message is the wire form of a message. TableData carries an encoded table.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	TableData      string    `json:"table_data,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateConversationRequest is the body of the create call.
type CreateConversationRequest struct {
	UserID string `json:"user_id"`
}

// SaveMessageRequest is the body of the save-message call.
type SaveMessageRequest struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	TableData string `json:"table_data,omitempty"`
}

// SaveMessageResponse carries the stored message and, when the server renamed
// the conversation, its new title.
type SaveMessageResponse struct {
	Message           Message `json:"message"`
	ConversationTitle string  `json:"conversation_title,omitempty"`
}

// RenameRequest is the body of the rename call.
type RenameRequest struct {
	Title string `json:"title"`
}

// BotRequest asks the bot for a reply.
type BotRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// BotData is tabular data attached to a bot reply. Cells may be any JSON value.
type BotData struct {
	Headers []string            `json:"headers"`
	Rows    [][]json.RawMessage `json:"rows"`
}

// BotResponse is the bot endpoint reply.
type BotResponse struct {
	Response string   `json:"response"`
	Data     *BotData `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// StatusResponse acknowledges rename and archive calls.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of a non-2xx reply.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// ToModel converts a wire conversation.
func (c Conversation) ToModel() model.Conversation {
	return model.Conversation{
		Ref:       model.Confirmed(c.ID),
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToModel converts a wire message, decoding any table payload. A payload that
// fails to decode is shown as plain text.
func (m Message) ToModel() model.Message {
	sender, err := model.ParseSender(m.Sender)
	if err != nil {
		sender = model.Sender(m.Sender)
	}
	msg := model.Message{
		Ref:            model.Confirmed(m.ID),
		ConversationID: m.ConversationID,
		Sender:         sender,
		Kind:           model.KindText,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}

	encoded := m.TableData
	if encoded == "" && model.IsEncodedTable(m.Text) {
		encoded = m.Text
	}
	if encoded == "" {
		return msg
	}

	table, ok, err := model.DecodeTable(encoded)
	switch {
	case err != nil:
		log.Printf("TABLE_DECODE_FAILED | message=%s error=%v", m.ID, err)
		if msg.Text == "" || model.IsEncodedTable(msg.Text) {
			msg.Text = encoded
		}
	case ok:
		msg.Kind = model.KindTable
		msg.Table = table
		if msg.Text == "" || model.IsEncodedTable(msg.Text) {
			msg.Text = table.Title
		}
	}
	return msg
}

// NewSaveMessageRequest builds the save body for a message.
func NewSaveMessageRequest(msg model.Message) (SaveMessageRequest, error) {
	req := SaveMessageRequest{Sender: msg.Sender.String(), Text: msg.Text}
	if msg.IsTable() {
		encoded, err := model.EncodeTable(msg.Table)
		if err != nil {
			return SaveMessageRequest{}, err
		}
		req.TableData = encoded
		if req.Text == "" {
			req.Text = msg.Table.Title
		}
	}
	return req, nil
}

// ToModel converts a bot response into a reply with string cells.
func (r BotResponse) ToModel() (model.BotReply, error) {
	reply := model.BotReply{Response: r.Response, ErrorDetail: r.Error}
	if r.Data == nil {
		return reply, nil
	}
	rows, err := model.FormatRows(r.Data.Rows)
	if err != nil {
		return model.BotReply{}, err
	}
	reply.Headers = r.Data.Headers
	reply.Rows = rows
	return reply, nil
}
