// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/repgen/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON. Options do not filter the output.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string       `json:"id"`
	Sender    string       `json:"sender"`
	Kind      string       `json:"kind"`
	Text      string       `json:"text"`
	Table     *model.Table `json:"table,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Failed    bool         `json:"failed,omitempty"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	out := jsonTranscript{
		ID:        t.Conversation.ID(),
		Title:     t.Conversation.DisplayTitle(),
		CreatedAt: t.Conversation.CreatedAt,
		UpdatedAt: t.Conversation.UpdatedAt,
		Messages:  make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		msg := jsonMessage{
			ID:        m.Ref.ID(),
			Sender:    m.Sender.String(),
			Kind:      m.Kind.String(),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			Failed:    m.Failed,
		}
		if m.IsTable() {
			msg.Table = m.Table
		}
		out.Messages = append(out.Messages, msg)
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
