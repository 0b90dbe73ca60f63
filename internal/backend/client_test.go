// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/repgen/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/api").WithHTTPClient(server.Client())
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestClient_UserName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/users/u%2F1", r.URL.EscapedPath())
		w.Write([]byte(`{"id":"u/1","name":"Crusch K."}`))
	})

	name, err := client.UserName(context.Background(), "u/1")
	require.NoError(t, err)
	assert.Equal(t, "Crusch K.", name)
}

func TestClient_ListConversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u1/conversations", r.URL.Path)
		w.Write([]byte(`[
			{"id":"c1","user_id":"u1","created_at":"2026-10-01T10:00:00Z","updated_at":"2026-10-02T10:00:00Z","title":"Sales"},
			{"id":"c2","user_id":"u1","created_at":"2026-10-03T10:00:00Z","updated_at":"2026-10-03T10:00:00Z"}
		]`))
	})

	convs, err := client.ListConversations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, model.Confirmed("c1"), convs[0].Ref)
	assert.Equal(t, "Sales", convs[0].DisplayTitle())
	assert.Equal(t, "Conversation c2", convs[1].DisplayTitle())
	assert.Equal(t, 2, convs[0].UpdatedAt.Day())
}

func TestClient_CreateConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req CreateConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"c9","user_id":"u1","created_at":"2026-10-18T08:00:00Z","updated_at":"2026-10-18T08:00:00Z"}`))
	})

	conv, err := client.CreateConversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "c9", conv.ID())
	assert.False(t, conv.Ref.IsPending())
}

func TestClient_CreateConversation_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.CreateConversation(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_ListMessages_DecodesTables(t *testing.T) {
	encoded, err := model.EncodeTable(&model.Table{
		Title:   "Financial Report",
		Headers: []string{"Category", "Amount (PHP)"},
		Rows:    [][]string{{"Revenue", "100"}},
	})
	require.NoError(t, err)

	messages := []Message{
		{ID: "m1", ConversationID: "c1", Sender: "user", Text: "financial report"},
		{ID: "m2", ConversationID: "c1", Sender: "bot", Text: "Financial Report", TableData: encoded},
		{ID: "m3", ConversationID: "c1", Sender: "bot", Text: encoded},
		{ID: "m4", ConversationID: "c1", Sender: "bot", Text: "Broken", TableData: model.TablePrefix + "{oops"},
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messages)
	})

	got, err := client.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, model.KindText, got[0].Kind)
	assert.Equal(t, model.SenderUser, got[0].Sender)

	assert.Equal(t, model.KindTable, got[1].Kind)
	assert.Equal(t, []string{"Category", "Amount (PHP)"}, got[1].Table.Headers)

	assert.Equal(t, model.KindTable, got[2].Kind, "legacy text-encoded table")
	assert.Equal(t, "Financial Report", got[2].Text)

	assert.Equal(t, model.KindText, got[3].Kind, "malformed payload degrades to text")
	assert.Equal(t, "Broken", got[3].Text)
}

func TestClient_SaveMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations/c1/messages", r.URL.Path)
		var req SaveMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bot", req.Sender)
		assert.True(t, model.IsEncodedTable(req.TableData))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SaveMessageResponse{
			Message:           Message{ID: "m7", Sender: req.Sender, Text: req.Text, TableData: req.TableData},
			ConversationTitle: "Financial report",
		})
	})

	msg := model.BotReply{
		Response: "Financial Report",
		Headers:  []string{"Category", "Amount (PHP)"},
		Rows:     [][]string{{"Revenue", "100"}},
	}.Normalize("c1")

	saved, title, err := client.SaveMessage(context.Background(), "c1", msg)
	require.NoError(t, err)
	assert.Equal(t, "Financial report", title)
	assert.Equal(t, model.Confirmed("m7"), saved.Ref)
	assert.Equal(t, "c1", saved.ConversationID)
	assert.True(t, saved.IsTable())
	assert.Equal(t, msg.Table.Rows, saved.Table.Rows)
}

func TestClient_RenameAndArchive(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodPatch {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"title":"Q3"}`, string(body))
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	require.NoError(t, client.RenameConversation(context.Background(), "c1", "Q3"))
	require.NoError(t, client.ArchiveConversation(context.Background(), "c1"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PATCH /api/conversations/c1", "POST /api/conversations/c1/archive"}, calls)
}

func TestClient_BotResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req BotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "financial report", req.Message)
		assert.Equal(t, "c1", req.ConversationID)
		w.Write([]byte(`{
			"response": "Financial Report",
			"data": {"headers": ["Category", "Amount (PHP)"], "rows": [["Revenue", 1250000.50], ["Flag", true], ["Note", null]]},
			"error": "partial data"
		}`))
	})

	reply, err := client.BotResponse(context.Background(), "c1", "financial report")
	require.NoError(t, err)
	assert.Equal(t, "Financial Report", reply.Response)
	assert.Equal(t, "partial data", reply.ErrorDetail)
	assert.Equal(t, [][]string{{"Revenue", "1250000.50"}, {"Flag", "true"}, {"Note", ""}}, reply.Rows)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"error":{"message":"conversation not found","code":404}}`, ErrNotFound, "conversation not found"},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"title is required"}}`, ErrBadRequest, "title is required"},
		{"rate limited", http.StatusTooManyRequests, `slow down`, ErrRateLimited, "slow down"},
		{"server error", http.StatusBadGateway, ``, ErrUnavailable, "HTTP 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.ListConversations(context.Background(), "u1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestClient_NoRetries(t *testing.T) {
	var count atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.BotResponse(context.Background(), "c1", "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), count.Load())
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).ListConversations(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.BotResponse(ctx, "c1", "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestNewClient_NoDefaultTimeout(t *testing.T) {
	c := NewClient("")
	if c.httpClient.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", c.httpClient.Timeout)
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if got := c.WithTimeout(5 * time.Second).httpClient.Timeout; got != 5*time.Second {
		t.Errorf("WithTimeout: Timeout = %v, want 5s", got)
	}
}

func TestClient_WithHTTPClient(t *testing.T) {
	var hits atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		hits.Add(1)
		assert.Equal(t, "repgen", r.Header.Get("User-Agent"))
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"id":"u1","name":"Crusch K."}`)),
			Request:    r,
		}, nil
	})}

	name, err := NewClient("http://reports.invalid/api").WithHTTPClient(hc).UserName(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Crusch K.", name)
	assert.Equal(t, int32(1), hits.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.UserName(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_RateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"x"}`))
	}).WithRateLimit(1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.UserName(ctx, "u1")
	require.NoError(t, err)

	// Second call cannot get a token before the deadline.
	_, err = client.UserName(ctx, "u1")
	assert.Error(t, err)
}
