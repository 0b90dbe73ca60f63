// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"log"
	"strings"

	"github.com/jeranaias/repgen/internal/model"
)

// =============================================================================
// COMPOSER
// =============================================================================

// SetDraft updates the composer text. Ignored while the composer is disabled.
func (a *Assistant) SetDraft(text string) {
	a.mutate(nil, func(st *Snapshot) {
		if !st.ComposerEnabled() {
			return
		}
		st.Composer.Text = text
		st.Composer.Height = ComposerHeight(text, a.composerWidth, a.opts.ComposerMinHeight, a.opts.ComposerMaxHeight)
	})
}

// SetComposerWidth sets the wrap width used to size the composer.
func (a *Assistant) SetComposerWidth(width int) {
	a.mutate(nil, func(st *Snapshot) {
		a.composerWidth = width
		st.Composer.Height = ComposerHeight(st.Composer.Text, width, a.opts.ComposerMinHeight, a.opts.ComposerMaxHeight)
	})
}

func (a *Assistant) resetComposerLocked(st *Snapshot) {
	st.Composer.Text = ""
	st.Composer.Height = a.opts.ComposerMinHeight
	st.Composer.Resets++
}

// =============================================================================
// MESSAGE EXCHANGE
// =============================================================================

// Submit sends the composer draft to the active conversation, creating a
// conversation first when none is active.
func (a *Assistant) Submit(ctx context.Context) error {
	snap := a.Snapshot()
	text := strings.TrimSpace(snap.Composer.Text)
	if text == "" || !snap.ComposerEnabled() {
		return nil
	}

	id := snap.ActiveID
	if id == "" {
		conv, err := a.CreateConversation(ctx)
		if err != nil {
			return err
		}
		id = conv.ID()
	}
	return a.SendMessage(ctx, id, text)
}

// SubmitText replaces the draft with text and submits it.
func (a *Assistant) SubmitText(ctx context.Context, text string) error {
	a.SetDraft(text)
	return a.Submit(ctx)
}

// SendMessage runs one turn: the user message is shown and persisted, the bot
// is asked for a reply and the reply is persisted and shown.
//
// Blank text, a turn already in flight or a conversation that is not active
// make it a no-op. When the user save fails the optimistic message is
// withdrawn. When the bot call or the bot save fails a local error reply is
// shown instead. Neither is retried. Navigating away mid-turn cancels the
// outstanding request and SendMessage returns ErrStale.
func (a *Assistant) SendMessage(ctx context.Context, conversationID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		sc      *scope
		started bool
		user    = model.NewUserMessage(conversationID, text)
	)
	a.mutate(nil, func(st *Snapshot) {
		if st.Turn != TurnIdle || st.ActiveID == "" || st.ActiveID != conversationID {
			return
		}
		started = true
		sc = a.scope
		st.Messages = append(st.Messages, user)
		a.resetComposerLocked(st)
		st.Turn = TurnAwaitingUserSave
	})
	if !started {
		return nil
	}
	defer a.mutate(sc, func(st *Snapshot) { st.Turn = TurnIdle })

	reqCtx, cancel := sc.bind(ctx)
	defer cancel()

	saved, title, err := a.backend.SaveMessage(reqCtx, conversationID, user)
	if !a.current(sc) {
		return ErrStale
	}
	if err != nil {
		log.Printf("MESSAGE_SAVE_FAILED | conversation=%s sender=user error=%v", conversationID, err)
		a.mutate(sc, func(st *Snapshot) {
			st.Messages, _ = model.Remove(st.Messages, user.Ref)
			st.Error = "Your message could not be sent. " + Describe(err)
		})
		return err
	}

	placeholder := model.NewLoadingMessage(conversationID)
	a.mutate(sc, func(st *Snapshot) {
		if replaced, ok := model.Replace(st.Messages, user.Ref, saved); ok {
			st.Messages = replaced
		}
		a.touchLocked(st, conversationID, title)
		st.Turn = TurnAwaitingBot
		st.Messages = append(st.Messages, placeholder)
	})

	reply, err := a.backend.BotResponse(reqCtx, conversationID, text)
	if !a.current(sc) {
		return ErrStale
	}
	if err != nil {
		log.Printf("BOT_RESPONSE_FAILED | conversation=%s error=%v", conversationID, err)
		return a.failTurn(sc, conversationID, placeholder.Ref, err)
	}

	bot := reply.Normalize(conversationID)
	a.mutate(sc, func(st *Snapshot) {
		st.Messages, _ = model.Remove(st.Messages, placeholder.Ref)
		st.Turn = TurnAwaitingBotSave
	})

	savedBot, title, err := a.backend.SaveMessage(reqCtx, conversationID, bot)
	if !a.current(sc) {
		return ErrStale
	}
	if err != nil {
		log.Printf("MESSAGE_SAVE_FAILED | conversation=%s sender=bot error=%v", conversationID, err)
		return a.failTurn(sc, conversationID, placeholder.Ref, err)
	}

	a.mutate(sc, func(st *Snapshot) {
		a.touchLocked(st, conversationID, title)
		st.Messages = append(st.Messages, savedBot)
	})
	log.Printf("TURN_COMPLETE | conversation=%s kind=%s", conversationID, savedBot.Kind)
	return nil
}

// failTurn replaces the placeholder with a local error reply that is never
// persisted.
func (a *Assistant) failTurn(sc *scope, conversationID string, placeholder model.Ref, err error) error {
	a.mutate(sc, func(st *Snapshot) {
		st.Messages, _ = model.Remove(st.Messages, placeholder)
		st.Messages = append(st.Messages, model.NewErrorMessage(conversationID, errorSentence(err)))
	})
	return err
}

type describedError struct{ err error }

func (e describedError) Error() string { return Describe(e.err) }
func (e describedError) Unwrap() error { return e.err }

func errorSentence(err error) error {
	return describedError{err: err}
}
