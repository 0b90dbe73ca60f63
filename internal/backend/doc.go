// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the report backend.
//
// The backend owns users, conversations and messages and answers report
// requests through its chatbot endpoint. Every call takes a context, reports
// failures as errors and is never retried automatically.
//
// Endpoints (relative to the configured base URL):
//   - GET   /users/{id}                     display name
//   - GET   /users/{id}/conversations       conversation list
//   - POST  /conversations                  create conversation
//   - GET   /conversations/{id}/messages    message history
//   - POST  /conversations/{id}/messages    save message
//   - PATCH /conversations/{id}             rename
//   - POST  /conversations/{id}/archive     archive
//   - POST  /chatbot                        bot response
//
// # Errors
//
// Non-2xx replies become *APIError, which matches ErrNotFound, ErrBadRequest,
// ErrRateLimited and ErrUnavailable through errors.Is. Transport failures wrap
// ErrUnreachable.
package backend
