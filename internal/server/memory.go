// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/repgen/internal/backend"
)

type memConversation struct {
	backend.Conversation
	archived bool
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]backend.User
	convs    map[string]*memConversation
	messages map[string][]backend.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]backend.User),
		convs:    make(map[string]*memConversation),
		messages: make(map[string][]backend.Message),
	}
}

// User implements Store.
func (s *MemoryStore) User(ctx context.Context, id string) (backend.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return backend.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

// PutUser implements Store.
func (s *MemoryStore) PutUser(ctx context.Context, user backend.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

// ListConversations implements Store.
func (s *MemoryStore) ListConversations(ctx context.Context, userID string) ([]backend.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []backend.Conversation{}
	for _, c := range s.convs {
		if c.UserID == userID && !c.archived {
			out = append(out, c.Conversation)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Conversation implements Store.
func (s *MemoryStore) Conversation(ctx context.Context, id string) (backend.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.activeLocked(id)
	if err != nil {
		return backend.Conversation{}, err
	}
	return c.Conversation, nil
}

// CreateConversation implements Store.
func (s *MemoryStore) CreateConversation(ctx context.Context, conv backend.Conversation) (backend.Conversation, error) {
	if conv.UserID == "" {
		return backend.Conversation{}, fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = &memConversation{Conversation: conv}
	return conv, nil
}

// RenameConversation implements Store.
func (s *MemoryStore) RenameConversation(ctx context.Context, id, title string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.activeLocked(id)
	if err != nil {
		return err
	}
	c.Title = title
	touch(&c.Conversation, at)
	return nil
}

// ArchiveConversation implements Store.
func (s *MemoryStore) ArchiveConversation(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	c.archived = true
	touch(&c.Conversation, at)
	return nil
}

// ListMessages implements Store.
func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]backend.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.activeLocked(conversationID); err != nil {
		return nil, err
	}
	return append([]backend.Message{}, s.messages[conversationID]...), nil
}

// AddMessage implements Store.
func (s *MemoryStore) AddMessage(ctx context.Context, msg backend.Message) (backend.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.activeLocked(msg.ConversationID)
	if err != nil {
		return backend.Message{}, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	touch(&c.Conversation, msg.CreatedAt)
	return msg, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) activeLocked(id string) (*memConversation, error) {
	c, ok := s.convs[id]
	if !ok || c.archived {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func touch(c *backend.Conversation, at time.Time) {
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
	}
}
