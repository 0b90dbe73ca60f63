// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/util"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL points at a locally running `repgen serve`.
	DefaultBaseURL = "http://127.0.0.1:8787/api"

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client talks to the report backend. Failures are returned to the caller
// and never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: "repgen",
	}
}

// WithBaseURL sets a custom base URL.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithTimeout sets the per-request timeout. Zero leaves the transport default.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// UserName loads the display name of a user.
func (c *Client) UserName(ctx context.Context, userID string) (string, error) {
	var user User
	if err := c.do(ctx, "load user", http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return "", err
	}
	return user.Name, nil
}

// ListConversations loads the conversations owned by userID.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var wire []Conversation
	path := "/users/" + url.PathEscape(userID) + "/conversations"
	if err := c.do(ctx, "load conversations", http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Conversation, 0, len(wire))
	for _, conv := range wire {
		out = append(out, conv.ToModel())
	}
	return out, nil
}

// CreateConversation creates an empty conversation for userID.
func (c *Client) CreateConversation(ctx context.Context, userID string) (model.Conversation, error) {
	var wire Conversation
	body := CreateConversationRequest{UserID: userID}
	if err := c.do(ctx, "create conversation", http.MethodPost, "/conversations", body, &wire); err != nil {
		return model.Conversation{}, err
	}
	if wire.ID == "" {
		return model.Conversation{}, fmt.Errorf("create conversation: %w: missing id", ErrInvalidResponse)
	}
	return wire.ToModel(), nil
}

// ListMessages loads the messages of a conversation in order.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var wire []Message
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, "load messages", http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(wire))
	for _, msg := range wire {
		out = append(out, msg.ToModel())
	}
	return out, nil
}

// SaveMessage persists msg and returns the stored copy together with the
// conversation title when the server changed it.
func (c *Client) SaveMessage(ctx context.Context, conversationID string, msg model.Message) (model.Message, string, error) {
	body, err := NewSaveMessageRequest(msg)
	if err != nil {
		return model.Message{}, "", fmt.Errorf("save message: %w", err)
	}
	var resp SaveMessageResponse
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, "save message", http.MethodPost, path, body, &resp); err != nil {
		return model.Message{}, "", err
	}
	if resp.Message.ID == "" {
		return model.Message{}, "", fmt.Errorf("save message: %w: missing id", ErrInvalidResponse)
	}
	if resp.Message.ConversationID == "" {
		resp.Message.ConversationID = conversationID
	}
	return resp.Message.ToModel(), resp.ConversationTitle, nil
}

// RenameConversation sets a conversation title.
func (c *Client) RenameConversation(ctx context.Context, conversationID, title string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	return c.do(ctx, "rename conversation", http.MethodPatch, path, RenameRequest{Title: title}, nil)
}

// ArchiveConversation hides a conversation from the active list.
func (c *Client) ArchiveConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/archive"
	return c.do(ctx, "archive conversation", http.MethodPost, path, nil, nil)
}

// BotResponse asks the bot to answer text within a conversation.
func (c *Client) BotResponse(ctx context.Context, conversationID, text string) (model.BotReply, error) {
	var resp BotResponse
	body := BotRequest{Message: text, ConversationID: conversationID}
	if err := c.do(ctx, "request bot response", http.MethodPost, "/chatbot", body, &resp); err != nil {
		return model.BotReply{}, err
	}
	reply, err := resp.ToModel()
	if err != nil {
		return model.BotReply{}, fmt.Errorf("request bot response: %w: %v", ErrInvalidResponse, err)
	}
	return reply, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		log.Printf("API_ERROR | op=%q method=%s path=%s error=%v", op, method, path, err)
		return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
	}
	defer resp.Body.Close()
	log.Printf("API_RESPONSE | method=%s path=%s status=%d duration=%s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := readResponse(resp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleErrorResponse(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
	}
	return nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx reply to an *APIError.
func handleErrorResponse(op string, status int, body []byte) error {
	apiErr := &APIError{Op: op, Status: status}

	var parsed ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		return apiErr
	}

	apiErr.Message = util.TruncateRunesNoEllipsis(strings.TrimSpace(string(body)), 200)
	return apiErr
}
