// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/repgen/internal/model"
)

// fakeBackend is an in-memory Backend. Hooks override single calls.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	convs  []model.Conversation
	msgs   map[string][]model.Message
	nextID int

	saveHook   func(ctx context.Context, convID string, msg model.Message) (model.Message, string, error)
	botHook    func(ctx context.Context, convID, text string) (model.BotReply, error)
	listHook   func(ctx context.Context, convID string) ([]model.Message, error)
	convsHook  func(ctx context.Context) ([]model.Conversation, error)
	createErr  error
	renameErr  error
	archiveErr error
	listErr    error
}

func newFakeBackend(convs ...model.Conversation) *fakeBackend {
	return &fakeBackend{convs: convs, msgs: make(map[string][]model.Message)}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeBackend) UserName(ctx context.Context, userID string) (string, error) {
	f.record("user " + userID)
	return "Crusch", nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	f.record("list " + userID)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.convsHook != nil {
		return f.convsHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Conversation(nil), f.convs...), nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, userID string) (model.Conversation, error) {
	f.record("create " + userID)
	if f.createErr != nil {
		return model.Conversation{}, f.createErr
	}
	return model.Conversation{Ref: model.Confirmed(f.id("c")), UserID: userID, UpdatedAt: time.Now()}, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, convID string) ([]model.Message, error) {
	f.record("messages " + convID)
	if f.listHook != nil {
		return f.listHook(ctx, convID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Message(nil), f.msgs[convID]...), nil
}

func (f *fakeBackend) SaveMessage(ctx context.Context, convID string, msg model.Message) (model.Message, string, error) {
	f.record("save " + msg.Sender.String())
	if f.saveHook != nil {
		return f.saveHook(ctx, convID, msg)
	}
	msg.Ref = model.Confirmed(f.id("m"))
	f.mu.Lock()
	f.msgs[convID] = append(f.msgs[convID], msg)
	f.mu.Unlock()
	return msg, "", nil
}

func (f *fakeBackend) RenameConversation(ctx context.Context, convID, title string) error {
	f.record("rename " + convID)
	return f.renameErr
}

func (f *fakeBackend) ArchiveConversation(ctx context.Context, convID string) error {
	f.record("archive " + convID)
	return f.archiveErr
}

func (f *fakeBackend) BotResponse(ctx context.Context, convID, text string) (model.BotReply, error) {
	f.record("bot")
	if f.botHook != nil {
		return f.botHook(ctx, convID, text)
	}
	return model.BotReply{Response: "echo: " + text}, nil
}

// recorder collects published snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) observe(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}
