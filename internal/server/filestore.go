// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/repgen/internal/backend"
	"github.com/jeranaias/repgen/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// storedConversation is the on-disk form of one conversation and its
// messages.
type storedConversation struct {
	backend.Conversation
	Archived bool              `json:"archived,omitempty"`
	Messages []backend.Message `json:"messages"`
}

// FileStore is a Store that keeps one JSON file per user and per
// conversation:
//
//	<BaseDir>/users/<id>.json
//	<BaseDir>/conversations/<id>.json
//
// Every write replaces the whole file atomically. Files that fail to decode
// are skipped when listing.
type FileStore struct {
	BaseDir string

	mu sync.Mutex
}

// OpenFileStore creates the directory layout under baseDir.
func OpenFileStore(baseDir string) (*FileStore, error) {
	for _, sub := range []string{"users", "conversations"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &FileStore{BaseDir: baseDir}, nil
}

// User implements Store.
func (s *FileStore) User(ctx context.Context, id string) (backend.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u backend.User
	if !validFileID(id) {
		return backend.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err := s.read(s.userPath(id), &u); err != nil {
		return backend.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return u, nil
}

// PutUser implements Store.
func (s *FileStore) PutUser(ctx context.Context, user backend.User) error {
	if !validFileID(user.ID) {
		return fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.userPath(user.ID), user)
}

// ListConversations implements Store.
func (s *FileStore) ListConversations(ctx context.Context, userID string) ([]backend.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.BaseDir, "conversations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := []backend.Conversation{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var c storedConversation
		if err := s.read(filepath.Join(dir, entry.Name()), &c); err != nil {
			log.Printf("STORE_SKIP_FILE | file=%s error=%v", entry.Name(), err)
			continue
		}
		if c.UserID == userID && !c.Archived {
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
func (s *FileStore) Conversation(ctx context.Context, id string) (backend.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadActive(id)
	if err != nil {
		return backend.Conversation{}, err
	}
	return c.Conversation, nil
}

// CreateConversation implements Store.
func (s *FileStore) CreateConversation(ctx context.Context, conv backend.Conversation) (backend.Conversation, error) {
	if conv.UserID == "" {
		return backend.Conversation{}, fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if !validFileID(conv.ID) {
		return backend.Conversation{}, fmt.Errorf("conversation id: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := storedConversation{Conversation: conv, Messages: []backend.Message{}}
	if err := s.write(s.conversationPath(conv.ID), stored); err != nil {
		return backend.Conversation{}, err
	}
	return conv, nil
}

// RenameConversation implements Store.
func (s *FileStore) RenameConversation(ctx context.Context, id, title string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadActive(id)
	if err != nil {
		return err
	}
	c.Title = title
	touch(&c.Conversation, at)
	return s.write(s.conversationPath(id), c)
}

// ArchiveConversation implements Store.
func (s *FileStore) ArchiveConversation(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.load(id)
	if err != nil {
		return err
	}
	c.Archived = true
	touch(&c.Conversation, at)
	return s.write(s.conversationPath(id), c)
}

// ListMessages implements Store.
func (s *FileStore) ListMessages(ctx context.Context, conversationID string) ([]backend.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadActive(conversationID)
	if err != nil {
		return nil, err
	}
	return append([]backend.Message{}, c.Messages...), nil
}

// AddMessage implements Store.
func (s *FileStore) AddMessage(ctx context.Context, msg backend.Message) (backend.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.loadActive(msg.ConversationID)
	if err != nil {
		return backend.Message{}, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	c.Messages = append(c.Messages, msg)
	touch(&c.Conversation, msg.CreatedAt)
	if err := s.write(s.conversationPath(msg.ConversationID), c); err != nil {
		return backend.Message{}, err
	}
	return msg, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *FileStore) userPath(id string) string {
	return filepath.Join(s.BaseDir, "users", id+".json")
}

func (s *FileStore) conversationPath(id string) string {
	return filepath.Join(s.BaseDir, "conversations", id+".json")
}

func (s *FileStore) load(id string) (*storedConversation, error) {
	var c storedConversation
	if !validFileID(id) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err := s.read(s.conversationPath(id), &c); err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	return &c, nil
}

func (s *FileStore) loadActive(id string) (*storedConversation, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if c.Archived {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// read decodes path into v. A missing file is ErrNotFound.
func (s *FileStore) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *FileStore) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// validFileID reports whether id can be used as a file name as is.
func validFileID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}
