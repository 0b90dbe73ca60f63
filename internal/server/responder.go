// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/cases"

	"github.com/jeranaias/repgen/internal/backend"
)

// Responder produces the bot reply to one user message.
type Responder interface {
	Respond(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error) {
	return f(ctx, req)
}

// =============================================================================
// KEYWORD RESPONDER
// =============================================================================

// HelpText is the reply to messages no report matches.
const HelpText = `I can generate these reports:

- **financial report**: revenue, costs and net income
- **sales report**: units and revenue per region
- **inventory report**: stock on hand and reorder points

Ask for one by name.`

// Report is a canned report triggered by a keyword.
type Report struct {
	Keyword  string
	Title    string
	Headers  []string
	Rows     [][]any
	ErrorMsg string
}

// DefaultReports are the reports served by the keyword responder.
var DefaultReports = []Report{
	{
		Keyword: "financial report",
		Title:   "Financial Report",
		Headers: []string{"Category", "Amount (PHP)"},
		Rows: [][]any{
			{"Revenue", 1250000.50},
			{"Cost of Sales", 730000},
			{"Operating Expenses", 215500.75},
			{"Net Income", 304499.75},
		},
	},
	{
		Keyword: "sales report",
		Title:   "Sales Report",
		Headers: []string{"Region", "Units Sold", "Revenue (PHP)", "Target Met"},
		Rows: [][]any{
			{"NCR", 1840, 920000, true},
			{"Central Luzon", 960, 480000, false},
			{"Visayas", 1210, 605000, true},
			{"Mindanao", 702, 351000, nil},
		},
	},
	{
		Keyword: "inventory",
		Title:   "Inventory Report",
		Headers: []string{"Item", "On Hand", "Reorder Point"},
		Rows: [][]any{
			{"Copier paper (ream)", 320, 100},
			{"Toner cartridge", 14, 20},
			{"Shipping boxes", 1500, 500},
		},
		ErrorMsg: "warehouse 3 has not synced; figures are partial",
	},
}

// KeywordResponder answers with the first report whose keyword appears in
// the message. Other messages go to Fallback, or get HelpText when it is nil.
type KeywordResponder struct {
	Reports  []Report
	Fallback Responder
}

// NewKeywordResponder creates a responder over DefaultReports.
func NewKeywordResponder(fallback Responder) *KeywordResponder {
	return &KeywordResponder{Reports: DefaultReports, Fallback: fallback}
}

// Respond implements Responder.
func (k *KeywordResponder) Respond(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error) {
	folded := cases.Fold().String(req.Message)
	for _, r := range k.Reports {
		if strings.Contains(folded, cases.Fold().String(r.Keyword)) {
			return r.Response()
		}
	}
	if k.Fallback != nil {
		return k.Fallback.Respond(ctx, req)
	}
	return backend.BotResponse{Response: HelpText}, nil
}

// Response renders the report as a bot reply.
func (r Report) Response() (backend.BotResponse, error) {
	data := &backend.BotData{Headers: r.Headers, Rows: make([][]json.RawMessage, 0, len(r.Rows))}
	for _, row := range r.Rows {
		cells := make([]json.RawMessage, 0, len(row))
		for _, v := range row {
			raw, err := json.Marshal(v)
			if err != nil {
				return backend.BotResponse{}, fmt.Errorf("report %q: %w", r.Title, err)
			}
			cells = append(cells, raw)
		}
		data.Rows = append(data.Rows, cells)
	}
	return backend.BotResponse{Response: r.Title, Data: data, Error: r.ErrorMsg}, nil
}

// =============================================================================
// OPENAI RESPONDER
// =============================================================================

// SystemPrompt frames free-form answers from the language model.
const SystemPrompt = "You are a report assistant for a small business. Answer briefly in Markdown. " +
	"When the user wants a report you cannot produce, suggest the financial, sales or inventory report."

// OpenAIResponder answers free-form messages with a chat completion.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

// NewOpenAIResponder creates a responder for an OpenAI-compatible API.
// An empty baseURL uses the OpenAI default.
func NewOpenAIResponder(apiKey, baseURL, model string) *OpenAIResponder {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Respond implements Responder.
func (o *OpenAIResponder) Respond(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Message},
		},
	})
	if err != nil {
		return backend.BotResponse{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return backend.BotResponse{}, fmt.Errorf("chat completion returned no choices")
	}
	return backend.BotResponse{Response: resp.Choices[0].Message.Content}, nil
}
