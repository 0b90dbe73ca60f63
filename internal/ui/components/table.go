// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/repgen/internal/model"
	"github.com/jeranaias/repgen/internal/ui/styles"
	"github.com/jeranaias/repgen/internal/util"
)

// =============================================================================
// TABLE COMPONENT
// =============================================================================

const (
	columnSeparator = " │ "
	minColumnWidth  = 3
)

// RenderTable draws t as an aligned grid no wider than width columns.
// A width <= 0 disables shrinking.
func RenderTable(t *model.Table, width int, theme *styles.Theme) string {
	if t == nil {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(theme.TableTitle.Render(t.Title))
		sb.WriteByte('\n')
	}
	if len(t.Headers) == 0 {
		sb.WriteString(theme.Muted.Render("(no columns)"))
		return sb.String()
	}

	widths := ColumnWidths(t.Headers, t.Rows, width)

	sb.WriteString(theme.TableHeader.Render(formatRow(t.Headers, widths)))
	sb.WriteByte('\n')
	sb.WriteString(theme.TableBorder.Render(ruleLine(widths)))

	for i, row := range t.Rows {
		sb.WriteByte('\n')
		line := formatRow(row, widths)
		if i%2 == 1 {
			sb.WriteString(theme.TableStripe.Render(line))
		} else {
			sb.WriteString(theme.TableCell.Render(line))
		}
	}

	if len(t.Rows) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(theme.Muted.Render("(no rows)"))
	} else {
		sb.WriteByte('\n')
		sb.WriteString(theme.Muted.Render(plural(len(t.Rows), "row")))
	}
	return sb.String()
}

// ColumnWidths returns the display width of every column. When the grid
// including separators exceeds maxWidth, the widest column is narrowed one
// column at a time until it fits or every column reached the minimum.
func ColumnWidths(headers []string, rows [][]string, maxWidth int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := util.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < minColumnWidth {
			widths[i] = minColumnWidth
		}
	}
	if maxWidth <= 0 {
		return widths
	}

	budget := maxWidth - util.StringWidth(columnSeparator)*(len(widths)-1)
	for total(widths) > budget {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func total(widths []int) int {
	n := 0
	for _, w := range widths {
		n += w
	}
	return n
}

// formatRow pads every cell to its column. Missing cells render blank.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(cells[i], "\n", " ")
		}
		parts[i] = util.PadWidth(cell, w)
	}
	return strings.TrimRight(strings.Join(parts, columnSeparator), " ")
}

func ruleLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return strings.Join(parts, "─┼─")
}
