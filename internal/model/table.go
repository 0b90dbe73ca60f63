// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TablePrefix marks a text field that carries an encoded table.
// U+2063 (INVISIBLE SEPARATOR) does not occur in typed or generated prose.
const TablePrefix = "\u2063repgen:table/v1\u2063"

var (
	// ErrMalformedTable indicates a prefixed payload that could not be decoded.
	ErrMalformedTable = errors.New("malformed table payload")

	// ErrRaggedTable indicates a row whose cell count differs from the header count.
	ErrRaggedTable = errors.New("row length does not match headers")
)

// =============================================================================
// TABLE TYPE
// =============================================================================

// Table is structured data attached to a bot message. Every row holds exactly
// one cell per header.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Validate checks the row/header alignment invariant.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedTable, i, len(row), len(t.Headers))
		}
	}
	return nil
}

// IsEmpty reports whether there is nothing to export.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Headers) == 0 || len(t.Rows) == 0
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Title: t.Title, Headers: append([]string(nil), t.Headers...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// =============================================================================
// SENTINEL CODEC
// =============================================================================

// EncodeTable serializes a table behind TablePrefix.
func EncodeTable(t *Table) (string, error) {
	if t == nil {
		return "", fmt.Errorf("%w: nil table", ErrMalformedTable)
	}
	if err := t.Validate(); err != nil {
		return "", err
	}
	payload := Table{Title: t.Title, Headers: t.Headers, Rows: t.Rows}
	if payload.Headers == nil {
		payload.Headers = []string{}
	}
	if payload.Rows == nil {
		payload.Rows = [][]string{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode table: %w", err)
	}
	return TablePrefix + string(data), nil
}

// IsEncodedTable reports whether text carries the table prefix.
func IsEncodedTable(text string) bool {
	return strings.HasPrefix(text, TablePrefix)
}

// DecodeTable parses text produced by EncodeTable. ok is false when text is
// not an encoded table. Prefixed text that fails to decode returns
// ErrMalformedTable so callers can fall back to plain text.
//
// Empty headers or rows decode as nil, so a table with nil Headers or Rows
// round-trips unchanged.
func DecodeTable(text string) (table *Table, ok bool, err error) {
	body, found := strings.CutPrefix(text, TablePrefix)
	if !found {
		return nil, false, nil
	}

	var raw struct {
		Title   string              `json:"title"`
		Headers []string            `json:"headers"`
		Rows    [][]json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	rows, err := FormatRows(raw.Rows)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	t := &Table{Title: raw.Title}
	if len(raw.Headers) > 0 {
		t.Headers = raw.Headers
	}
	if len(rows) > 0 {
		t.Rows = rows
	}
	if err := t.Validate(); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return t, true, nil
}

// =============================================================================
// CELL FORMATTING
// =============================================================================

// FormatRows converts raw JSON cells to display strings without losing data.
func FormatRows(raw [][]json.RawMessage) ([][]string, error) {
	rows := make([][]string, len(raw))
	for i, r := range raw {
		row := make([]string, len(r))
		for j, cell := range r {
			s, err := FormatCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d cell %d: %w", i, j, err)
			}
			row[j] = s
		}
		rows[i] = row
	}
	return rows, nil
}

// FormatCell renders one JSON cell. Strings are unquoted, numbers keep their
// literal, null becomes empty and objects or arrays are compacted JSON.
func FormatCell(cell json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(cell)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		if string(trimmed) == "null" {
			return "", nil
		}
	case 't', 'f':
		b, err := strconv.ParseBool(string(trimmed))
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
