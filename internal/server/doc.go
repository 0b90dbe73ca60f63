// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the report backend as a JSON HTTP API.
//
// Endpoints (under /api unless noted):
//   - GET   /health                       - Health check (root)
//   - GET   /users/{userID}               - Display name
//   - GET   /users/{userID}/conversations - Active conversations, newest first
//   - POST  /conversations                - Create a conversation
//   - PATCH /conversations/{id}           - Rename
//   - POST  /conversations/{id}/archive   - Archive
//   - GET   /conversations/{id}/messages  - Messages in order
//   - POST  /conversations/{id}/messages  - Save a message
//   - POST  /chatbot                      - Bot reply, optionally with a table
//
// Data lives in a Store: MemoryStore for tests and demos, SQLiteStore for a
// persistent file. Bot replies come from a Responder. The KeywordResponder
// serves canned financial, sales and inventory tables and can fall back to an
// OpenAIResponder for free-form questions.
//
// Errors are returned as {"error":{"message":"...","code":404}}.
package server
