// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant implements the conversational report assistant: the
// conversation list, the message exchange with the bot and the composer.
//
// An Assistant owns all mutable state behind a mutex. Every operation takes a
// context, talks to a Backend and publishes a Snapshot to subscribers after
// each visible transition, so the terminal UI re-renders and tests can observe
// intermediate states such as the loading placeholder.
//
// # State
//
//   - PanelState tracks the conversation list load: idle, loading, error.
//   - ViewState tracks the active conversation's message load.
//   - TurnState tracks one message exchange: idle, awaiting user save,
//     awaiting bot, awaiting bot save. The composer and list mutations are
//     disabled while it is not idle.
//
// # Cancellation
//
// Selecting, creating or archiving the active conversation opens a new scope.
// Requests issued under the previous scope are cancelled and any result that
// still arrives is discarded with ErrStale instead of touching the new view.
package assistant
