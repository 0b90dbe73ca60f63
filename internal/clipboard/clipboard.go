// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard copies report summaries to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"log"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard utility is installed.
var ErrUnavailable = errors.New("clipboard unavailable")

var writeAll = clipboard.WriteAll

// Unsupported reports whether the platform has no clipboard support.
func Unsupported() bool {
	return clipboard.Unsupported
}

// CopySummary writes text to the system clipboard. It never panics; every
// failure is logged and returned so the caller can acknowledge it.
func CopySummary(text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("copy to clipboard: %v", r)
		}
		if err != nil {
			log.Printf("CLIPBOARD_FAILED | length=%d error=%v", len(text), err)
		}
	}()

	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	log.Printf("CLIPBOARD_COPIED | length=%d", len(text))
	return nil
}
