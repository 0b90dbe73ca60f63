// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/repgen/internal/backend"
)

// Schema is the SQLite schema of the reference backend.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, archived, updated_at);

CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender          TEXT NOT NULL,
	text            TEXT NOT NULL,
	table_data      TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
`

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// User implements Store.
func (s *SQLiteStore) User(ctx context.Context, id string) (backend.User, error) {
	u := backend.User{ID: id}
	err := s.db.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", id).Scan(&u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return backend.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// PutUser implements Store.
func (s *SQLiteStore) PutUser(ctx context.Context, user backend.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name",
		user.ID, user.Name)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ListConversations implements Store.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]backend.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = ? AND archived = 0
		ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []backend.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Conversation implements Store.
func (s *SQLiteStore) Conversation(ctx context.Context, id string) (backend.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = ? AND archived = 0`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c, err
}

// CreateConversation implements Store.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv backend.Conversation) (backend.Conversation, error) {
	if conv.UserID == "" {
		return backend.Conversation{}, fmt.Errorf("user id: %w", ErrInvalidInput)
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		conv.ID, conv.UserID, conv.Title, formatTime(conv.CreatedAt), formatTime(conv.UpdatedAt))
	if err != nil {
		return backend.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// RenameConversation implements Store.
func (s *SQLiteStore) RenameConversation(ctx context.Context, id, title string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET title = ?, updated_at = MAX(updated_at, ?)
		WHERE id = ? AND archived = 0`, title, formatTime(at), id)
	return affected(res, err, "rename conversation", id)
}

// ArchiveConversation implements Store.
func (s *SQLiteStore) ArchiveConversation(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET archived = 1, updated_at = MAX(updated_at, ?)
		WHERE id = ?`, formatTime(at), id)
	return affected(res, err, "archive conversation", id)
}

// ListMessages implements Store.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]backend.Message, error) {
	if _, err := s.Conversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, text, table_data, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []backend.Message{}
	for rows.Next() {
		var (
			m       backend.Message
			created string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.TableData, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMessage implements Store.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg backend.Message) (backend.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.Message{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET updated_at = MAX(updated_at, ?)
		WHERE id = ? AND archived = 0`, formatTime(msg.CreatedAt), msg.ConversationID)
	if err := affected(res, err, "save message", msg.ConversationID); err != nil {
		return backend.Message{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, text, table_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Sender, msg.Text, msg.TableData, formatTime(msg.CreatedAt))
	if err != nil {
		return backend.Message{}, fmt.Errorf("save message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return backend.Message{}, fmt.Errorf("commit: %w", err)
	}
	return msg, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (backend.Conversation, error) {
	var (
		c                backend.Conversation
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return backend.Conversation{}, err
		}
		return backend.Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func affected(res sql.Result, err error, op, id string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

// Timestamps are stored as fixed-width UTC strings so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
