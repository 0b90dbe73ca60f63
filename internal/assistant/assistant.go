// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/repgen/internal/model"
)

// Backend is the remote service the assistant drives. *backend.Client
// implements it.
type Backend interface {
	UserName(ctx context.Context, userID string) (string, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, userID string) (model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	SaveMessage(ctx context.Context, conversationID string, msg model.Message) (model.Message, string, error)
	RenameConversation(ctx context.Context, conversationID, title string) error
	ArchiveConversation(ctx context.Context, conversationID string) error
	BotResponse(ctx context.Context, conversationID, text string) (model.BotReply, error)
}

// Options configures an Assistant.
type Options struct {
	UserID string

	// ComposerMinHeight and ComposerMaxHeight bound the composer in lines.
	ComposerMinHeight int
	ComposerMaxHeight int

	// Now overrides the clock used for conversation timestamps.
	Now func() time.Time
}

// Assistant holds the conversation list, the active conversation and the
// composer for one user.
type Assistant struct {
	backend Backend
	opts    Options

	mu            sync.Mutex
	st            Snapshot
	scope         *scope
	gen           uint64
	composerWidth int
	observers     map[int]func(Snapshot)
	nextObserver  int

	// loads counts LoadConversations calls in flight. While any is running,
	// created logs the ids of new conversations so a fetch that started
	// before them does not drop them from the list.
	loads   int
	created []string
}

// New creates an assistant for opts.UserID.
func New(b Backend, opts Options) *Assistant {
	if opts.ComposerMinHeight <= 0 {
		opts.ComposerMinHeight = DefaultComposerMinHeight
	}
	if opts.ComposerMaxHeight < opts.ComposerMinHeight {
		opts.ComposerMaxHeight = DefaultComposerMaxHeight
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &Assistant{
		backend:   b,
		opts:      opts,
		scope:     newScope(0),
		observers: make(map[int]func(Snapshot)),
	}
	a.st.UserID = opts.UserID
	a.st.Composer.Height = opts.ComposerMinHeight
	return a
}

// Snapshot returns a copy of the current state.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.clone()
}

// OnChange registers fn to receive a snapshot after every state change.
// Callbacks run on the goroutine that made the change, outside the lock.
// The returned function unregisters fn.
func (a *Assistant) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextObserver
	a.nextObserver++
	a.observers[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

// Close cancels outstanding requests of the active conversation.
func (a *Assistant) Close() {
	a.mu.Lock()
	a.scope.close()
	a.mu.Unlock()
}

// =============================================================================
// STATE PLUMBING
// =============================================================================

// mutate applies fn under the lock and notifies observers. When sc is not nil
// and no longer current, fn is skipped and mutate reports false.
func (a *Assistant) mutate(sc *scope, fn func(st *Snapshot)) bool {
	a.mu.Lock()
	if sc != nil && sc != a.scope {
		a.mu.Unlock()
		return false
	}
	fn(&a.st)
	a.st.Version++
	snap := a.st.clone()
	observers := make([]func(Snapshot), 0, len(a.observers))
	for _, o := range a.observers {
		observers = append(observers, o)
	}
	a.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return true
}

// switchScopeLocked cancels the current scope and opens a new one.
func (a *Assistant) switchScopeLocked() *scope {
	a.scope.close()
	a.gen++
	a.scope = newScope(a.gen)
	return a.scope
}

func (a *Assistant) current(sc *scope) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sc == a.scope
}

// openConversation makes id active with an empty message list. Any turn of
// the previous conversation is abandoned.
func (a *Assistant) openConversation(st *Snapshot, id string, view ViewState) {
	st.ActiveID = id
	st.Messages = nil
	st.View = view
	st.Turn = TurnIdle
}

func (a *Assistant) touchLocked(st *Snapshot, id, title string) {
	i := model.IndexOf(st.Conversations, model.Confirmed(id))
	if i < 0 {
		return
	}
	if title != "" {
		st.Conversations[i].Title = title
	}
	st.Conversations[i].Touch(a.opts.Now())
}

// =============================================================================
// USER AND CONVERSATION LIST
// =============================================================================

// LoadUser fetches the display name used in the greeting. Failures keep the
// generic greeting.
func (a *Assistant) LoadUser(ctx context.Context) error {
	name, err := a.backend.UserName(ctx, a.opts.UserID)
	if err != nil {
		log.Printf("USER_LOAD_FAILED | user=%s error=%v", a.opts.UserID, err)
		return err
	}
	a.mutate(nil, func(st *Snapshot) { st.UserName = strings.TrimSpace(name) })
	return nil
}

// LoadConversations fetches the user's conversations. On failure the previous
// list is kept and the panel shows the error. Conversations created while the
// fetch was in flight, and the active one, stay in the list when the
// response does not contain them.
func (a *Assistant) LoadConversations(ctx context.Context) error {
	var start int
	a.mutate(nil, func(st *Snapshot) {
		st.Panel = PanelLoading
		st.PanelError = ""
		a.loads++
		start = len(a.created)
	})

	convs, err := a.backend.ListConversations(ctx, a.opts.UserID)
	if err != nil {
		log.Printf("CONVERSATIONS_LOAD_FAILED | user=%s error=%v", a.opts.UserID, err)
	}

	a.mutate(nil, func(st *Snapshot) {
		defer a.endLoadLocked()
		if err != nil {
			st.Panel = PanelError
			st.PanelError = "Could not load conversations. " + Describe(err)
			return
		}
		st.Conversations = a.mergeLocked(st, convs, a.created[start:])
		st.Panel = PanelIdle
	})
	return err
}

// mergeLocked returns the fetched list, minus archived entries, preceded by
// the local conversations it lacks that are active or listed in created.
func (a *Assistant) mergeLocked(st *Snapshot, fetched []model.Conversation, created []string) []model.Conversation {
	seen := make(map[string]bool, len(fetched))
	out := make([]model.Conversation, 0, len(fetched)+len(created))
	for _, c := range st.Conversations {
		if c.ID() != st.ActiveID && !slices.Contains(created, c.ID()) {
			continue
		}
		if model.IndexOf(fetched, c.Ref) < 0 {
			out = append(out, c)
			seen[c.ID()] = true
		}
	}
	for _, c := range fetched {
		if !c.Archived && !seen[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

func (a *Assistant) endLoadLocked() {
	a.loads--
	if a.loads == 0 {
		a.created = nil
	}
}

// CreateConversation creates an empty conversation, puts it at the top of the
// list and makes it active. A failed call may simply be retried.
func (a *Assistant) CreateConversation(ctx context.Context) (model.Conversation, error) {
	busy := false
	a.mutate(nil, func(st *Snapshot) {
		busy = st.Creating
		st.Creating = true
	})
	if busy {
		return model.Conversation{}, ErrCreateInProgress
	}

	conv, err := a.backend.CreateConversation(ctx, a.opts.UserID)
	if err != nil {
		log.Printf("CONVERSATION_CREATE_FAILED | user=%s error=%v", a.opts.UserID, err)
		a.mutate(nil, func(st *Snapshot) {
			st.Creating = false
			st.Error = "Could not create a conversation. " + Describe(err)
		})
		return model.Conversation{}, err
	}

	a.mutate(nil, func(st *Snapshot) {
		st.Creating = false
		a.switchScopeLocked()
		st.Conversations = append([]model.Conversation{conv}, st.Conversations...)
		if a.loads > 0 {
			a.created = append(a.created, conv.ID())
		}
		a.openConversation(st, conv.ID(), ViewIdle)
	})
	log.Printf("CONVERSATION_CREATED | id=%s", conv.ID())
	return conv, nil
}

// SelectConversation makes id active and loads its messages. The message list
// is cleared before the fetch, so a failure never shows another
// conversation's messages. Returns ErrStale when another selection happened
// while loading.
func (a *Assistant) SelectConversation(ctx context.Context, id string) error {
	var sc *scope
	known := true
	a.mutate(nil, func(st *Snapshot) {
		if model.IndexOf(st.Conversations, model.Confirmed(id)) < 0 {
			known = false
			return
		}
		sc = a.switchScopeLocked()
		a.openConversation(st, id, ViewLoading)
	})
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}

	reqCtx, cancel := sc.bind(ctx)
	defer cancel()
	msgs, err := a.backend.ListMessages(reqCtx, id)

	applied := a.mutate(sc, func(st *Snapshot) {
		if err != nil {
			st.View = ViewError
			st.Error = "Could not load messages. " + Describe(err)
			return
		}
		st.Messages = msgs
		st.View = ViewIdle
	})
	if !applied {
		return ErrStale
	}
	if err != nil {
		log.Printf("MESSAGES_LOAD_FAILED | conversation=%s error=%v", id, err)
	}
	return err
}

// RenameConversation sets a conversation title. Blank titles are rejected
// locally and the list is only updated after the backend confirms.
func (a *Assistant) RenameConversation(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if err := a.guardListMutation(id, title == ""); err != nil {
		return err
	}

	if err := a.backend.RenameConversation(ctx, id, title); err != nil {
		log.Printf("CONVERSATION_RENAME_FAILED | id=%s error=%v", id, err)
		a.mutate(nil, func(st *Snapshot) { st.Error = "Could not rename the conversation. " + Describe(err) })
		return err
	}

	a.mutate(nil, func(st *Snapshot) {
		if i := model.IndexOf(st.Conversations, model.Confirmed(id)); i >= 0 {
			st.Conversations[i].Title = title
		}
	})
	return nil
}

// ArchiveConversation hides a conversation. Archiving the active conversation
// clears the message view.
func (a *Assistant) ArchiveConversation(ctx context.Context, id string) error {
	if err := a.guardListMutation(id, false); err != nil {
		return err
	}

	if err := a.backend.ArchiveConversation(ctx, id); err != nil {
		log.Printf("CONVERSATION_ARCHIVE_FAILED | id=%s error=%v", id, err)
		a.mutate(nil, func(st *Snapshot) { st.Error = "Could not archive the conversation. " + Describe(err) })
		return err
	}

	a.mutate(nil, func(st *Snapshot) {
		st.Conversations, _ = model.Remove(st.Conversations, model.Confirmed(id))
		if st.ActiveID == id {
			a.switchScopeLocked()
			a.openConversation(st, "", ViewIdle)
		}
	})
	log.Printf("CONVERSATION_ARCHIVED | id=%s", id)
	return nil
}

// guardListMutation refuses rename and archive while a turn is in flight.
func (a *Assistant) guardListMutation(id string, blankTitle bool) error {
	var err error
	a.mutate(nil, func(st *Snapshot) {
		switch {
		case blankTitle:
			err = ErrEmptyTitle
		case st.Turn != TurnIdle:
			err = ErrTurnInProgress
		case model.IndexOf(st.Conversations, model.Confirmed(id)) < 0:
			err = fmt.Errorf("%w: %s", ErrUnknownConversation, id)
		default:
			return
		}
		st.Error = capitalize(err.Error()) + "."
	})
	return err
}

// DismissError clears the current error.
func (a *Assistant) DismissError() {
	a.mutate(nil, func(st *Snapshot) { st.Error = "" })
}

// SetError surfaces a failure from outside the assistant, such as an export.
func (a *Assistant) SetError(msg string) {
	a.mutate(nil, func(st *Snapshot) { st.Error = msg })
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
