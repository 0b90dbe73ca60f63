// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/google/uuid"
)

// =============================================================================
// REF
// =============================================================================

// TempIDPrefix marks identifiers generated on the client.
const TempIDPrefix = "tmp-"

// Ref identifies an item that is either Pending (known only by a client
// generated temporary id) or Confirmed (known by its server id).
// The zero Ref is neither and matches nothing.
type Ref struct {
	id      string
	pending bool
}

// Pending returns a new pending ref with a fresh temporary id.
func Pending() Ref {
	return Ref{id: TempIDPrefix + uuid.NewString(), pending: true}
}

// Confirmed returns a ref for a server-assigned id.
func Confirmed(id string) Ref {
	return Ref{id: id}
}

// ID returns the temporary or confirmed identifier.
func (r Ref) ID() string { return r.id }

// IsPending reports whether the item still awaits server confirmation.
func (r Ref) IsPending() bool { return r.pending }

// IsZero reports whether the ref was never assigned.
func (r Ref) IsZero() bool { return r.id == "" }

// String returns a debug representation.
func (r Ref) String() string {
	if r.pending {
		return "pending(" + r.id + ")"
	}
	return r.id
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Referenced is implemented by items tracked through a Ref.
type Referenced interface {
	Reference() Ref
}

// IndexOf returns the position of the item with the given ref, or -1.
func IndexOf[T Referenced](items []T, ref Ref) int {
	if ref.IsZero() {
		return -1
	}
	for i, item := range items {
		if item.Reference() == ref {
			return i
		}
	}
	return -1
}

// Replace swaps the item identified by ref for replacement, keeping its
// position. The input slice is not modified.
func Replace[T Referenced](items []T, ref Ref, replacement T) ([]T, bool) {
	i := IndexOf(items, ref)
	if i < 0 {
		return items, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = replacement
	return out, true
}

// Remove drops the item identified by ref. The input slice is not modified.
func Remove[T Referenced](items []T, ref Ref) ([]T, bool) {
	i := IndexOf(items, ref)
	if i < 0 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, true
}
