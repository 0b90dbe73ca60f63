// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for report conversations and messages.
//
// This package defines the core domain types shared by the backend client, the
// assistant controller, the exporters and the terminal UI.
//
// # Key Types
//
//   - Conversation: A titled, timestamped thread owned by one user
//   - Message: One turn, sent by the user or the bot, of kind text or table
//   - Table: Structured headers and rows attached to a bot message
//   - Ref: Identity of an item that is either pending server confirmation or confirmed
//
// # Table Encoding
//
// Tables travel through a text field. EncodeTable prefixes the JSON payload with
// TablePrefix; DecodeTable reverses it and reports ErrMalformedTable for payloads
// that carry the prefix but cannot be decoded:
//
//	text, err := model.EncodeTable(table)
//	...
//	table, ok, err := model.DecodeTable(text)
package model
