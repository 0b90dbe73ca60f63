// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/repgen/internal/model"
)

// CSVMimeType is the MIME type of table exports.
const CSVMimeType = "text/csv"

// TableCSV joins headers and rows with commas and newlines. Cells are not
// quoted, so commas or quotes inside a cell shift columns.
func TableCSV(headers []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		sb.WriteByte('\n')
		sb.WriteString(strings.Join(row, ","))
	}
	return sb.String()
}

// ExportTableAsCSV writes table to dir/filename.csv. A table without headers
// or without rows is skipped: the returned path is empty and err is nil.
func ExportTableAsCSV(table *model.Table, filename, dir string) (string, error) {
	if table == nil || len(table.Headers) == 0 || len(table.Rows) == 0 {
		return "", nil
	}

	name := sanitizeFilename(strings.TrimSuffix(filename, ".csv"))
	if filename == "" {
		name = sanitizeFilename(table.Title)
	}

	content := TableCSV(table.Headers, table.Rows)
	path, err := writeExport(dir, name+".csv", []byte(content))
	if err != nil {
		return "", fmt.Errorf("export table: %w", err)
	}
	log.Printf("EXPORT_WRITTEN | path=%s type=%s rows=%d", path, CSVMimeType, len(table.Rows))
	return path, nil
}
