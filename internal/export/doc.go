// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes report tables and conversation transcripts to files.
//
// # Formats
//
//   - CSV: one report table, headers then rows, comma-joined without quoting
//   - Markdown: a transcript with tables rendered as pipe tables
//   - JSON: a transcript with structured tables
//
// # Usage
//
// Export the latest table of a conversation:
//
//	path, err := export.ExportTableAsCSV(msg.Table, "financial-report", cfg.Export.Dir)
//
// A table without headers or rows is skipped and path is empty.
//
// Export a transcript:
//
//	t := export.NewTranscript(conv, messages)
//	path, err := export.ExportMarkdown(t, opts)
package export
