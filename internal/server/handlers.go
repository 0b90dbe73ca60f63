// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/model"
)

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

// ============================================================================
// USERS AND CONVERSATIONS
// ============================================================================

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.User(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeStoreError(w, "load user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.ListConversations(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeStoreError(w, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	now := s.clock()
	conv, err := s.store.CreateConversation(r.Context(), backend.Conversation{
		UserID:    req.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		writeStoreError(w, "create conversation", err)
		return
	}
	log.Printf("CONVERSATION_CREATED | id=%s user=%s", conv.ID, conv.UserID)
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	var req backend.RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := s.store.RenameConversation(r.Context(), r.PathValue("id"), title, s.clock()); err != nil {
		writeStoreError(w, "rename conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, backend.StatusResponse{Status: "ok"})
}

func (s *Server) handleArchiveConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.ArchiveConversation(r.Context(), id, s.clock()); err != nil {
		writeStoreError(w, "archive conversation", err)
		return
	}
	log.Printf("CONVERSATION_ARCHIVED | id=%s", id)
	writeJSON(w, http.StatusOK, backend.StatusResponse{Status: "ok"})
}

// ============================================================================
// MESSAGES
// ============================================================================

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleSaveMessage stores a message. The first user message of an untitled
// conversation names it; the new title is returned with the message.
func (s *Server) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req backend.SaveMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sender, err := model.ParseSender(req.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateMessage(sender, req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	conv, err := s.store.Conversation(ctx, id)
	if err != nil {
		writeStoreError(w, "save message", err)
		return
	}

	saved, err := s.store.AddMessage(ctx, backend.Message{
		ConversationID: id,
		Sender:         sender.String(),
		Text:           req.Text,
		TableData:      req.TableData,
		CreatedAt:      s.clock(),
	})
	if err != nil {
		writeStoreError(w, "save message", err)
		return
	}

	resp := backend.SaveMessageResponse{Message: saved}
	if conv.Title == "" && sender == model.SenderUser {
		if title := model.InferTitle(req.Text); title != "" {
			if err := s.store.RenameConversation(ctx, id, title, saved.CreatedAt); err != nil {
				log.Printf("TITLE_INFERENCE_FAILED | conversation=%s error=%v", id, err)
			} else {
				resp.ConversationTitle = title
			}
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// validateMessage returns a client-facing problem with req, or "".
func validateMessage(sender model.Sender, req backend.SaveMessageRequest) string {
	if strings.TrimSpace(req.Text) == "" && req.TableData == "" {
		return "text is required"
	}
	if sender == model.SenderUser && req.TableData != "" {
		return "user messages cannot carry table data"
	}
	if utf8.RuneCountInString(req.Text) > MaxMessageLength {
		return "text is too long"
	}
	if req.TableData != "" {
		if _, ok, err := model.DecodeTable(req.TableData); !ok || err != nil {
			return "table_data is not an encoded table"
		}
	}
	return ""
}

// ============================================================================
// CHATBOT
// ============================================================================

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req backend.BotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "message is too long")
		return
	}
	if _, err := s.store.Conversation(r.Context(), req.ConversationID); err != nil {
		writeStoreError(w, "chatbot", err)
		return
	}

	s.mu.RLock()
	responder, timeout := s.responder, s.botTimeout
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	resp, err := responder.Respond(ctx, req)
	if err != nil {
		log.Printf("BOT_FAILED | conversation=%s error=%v", req.ConversationID, err)
		writeError(w, http.StatusBadGateway, "the report assistant could not answer")
		return
	}
	log.Printf("BOT_RESPONSE | conversation=%s table=%t duration=%s", req.ConversationID, resp.Data != nil, time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}
