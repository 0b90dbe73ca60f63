// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/repgen/internal/backend"
)

func TestKeywordResponder(t *testing.T) {
	tests := []struct {
		message   string
		wantTitle string
		wantTable bool
		wantError string
	}{
		{"financial report", "Financial Report", true, ""},
		{"Please send the SALES REPORT for Q3", "Sales Report", true, ""},
		{"what is in inventory?", "Inventory Report", true, "warehouse 3 has not synced; figures are partial"},
		{"hello", HelpText, false, ""},
	}

	k := NewKeywordResponder(nil)
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			resp, err := k.Respond(context.Background(), backend.BotRequest{Message: tt.message})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, resp.Response)
			assert.Equal(t, tt.wantTable, resp.Data != nil)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestKeywordResponder_Fallback(t *testing.T) {
	var got string
	k := NewKeywordResponder(ResponderFunc(func(ctx context.Context, req backend.BotRequest) (backend.BotResponse, error) {
		got = req.Message
		return backend.BotResponse{Response: "free form"}, nil
	}))

	resp, err := k.Respond(context.Background(), backend.BotRequest{Message: "why did costs rise?"})
	require.NoError(t, err)
	assert.Equal(t, "free form", resp.Response)
	assert.Equal(t, "why did costs rise?", got)

	resp, err = k.Respond(context.Background(), backend.BotRequest{Message: "financial report"})
	require.NoError(t, err)
	assert.Equal(t, "Financial Report", resp.Response, "keywords take precedence over the fallback")
}

func TestReport_ResponseCells(t *testing.T) {
	resp, err := DefaultReports[1].Response()
	require.NoError(t, err)

	reply, err := resp.ToModel()
	require.NoError(t, err)
	assert.Equal(t, []string{"NCR", "1840", "920000", "true"}, reply.Rows[0])
	assert.Equal(t, "", reply.Rows[3][3])
}

func TestOpenAIResponder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, SystemPrompt, req.Messages[0].Content)
		assert.Equal(t, "why did costs rise?", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Freight costs doubled."},
			}},
		})
	}))
	defer srv.Close()

	o := NewOpenAIResponder("test-key", srv.URL+"/v1", "test-model")
	resp, err := o.Respond(context.Background(), backend.BotRequest{Message: "why did costs rise?"})
	require.NoError(t, err)
	assert.Equal(t, "Freight costs doubled.", resp.Response)
	assert.Nil(t, resp.Data)
}

func TestOpenAIResponder_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAIResponder("k", srv.URL+"/v1", "")
	_, err := o.Respond(context.Background(), backend.BotRequest{Message: "hi"})
	assert.Error(t, err)
}
