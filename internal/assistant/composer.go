// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"strings"

	"github.com/jeranaias/repgen/internal/util"
)

// Composer height bounds in lines.
const (
	DefaultComposerMinHeight = 1
	DefaultComposerMaxHeight = 8
)

// ComposerHeight returns the number of lines text occupies when wrapped at
// width, clamped to [minHeight, maxHeight]. A width <= 0 disables wrapping.
func ComposerHeight(text string, width, minHeight, maxHeight int) int {
	if minHeight < 1 {
		minHeight = 1
	}
	if maxHeight < minHeight {
		maxHeight = minHeight
	}

	lines := 0
	for _, line := range strings.Split(text, "\n") {
		lines += wrappedLines(line, width)
		if lines >= maxHeight {
			return maxHeight
		}
	}
	if lines < minHeight {
		return minHeight
	}
	return lines
}

func wrappedLines(line string, width int) int {
	if width <= 0 {
		return 1
	}
	w := util.StringWidth(line)
	if w == 0 {
		return 1
	}
	return (w + width - 1) / width
}
