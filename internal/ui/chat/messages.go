// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/repgen/internal/assistant"
	"github.com/jeranaias/repgen/internal/config"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// StateMsg carries an assistant snapshot published by OnChange.
type StateMsg struct {
	Snapshot assistant.Snapshot
}

// ConfigChangedMsg carries a configuration reloaded from disk.
type ConfigChangedMsg struct {
	Config *config.Config
}

// opDoneMsg reports that an assistant operation returned.
type opDoneMsg struct {
	op  string
	err error
}

// noticeMsg shows a transient confirmation in the status bar.
type noticeMsg struct {
	text string
}

// clearNoticeMsg clears the notice with the given id.
type clearNoticeMsg struct {
	id int
}
