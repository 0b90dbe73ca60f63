// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history groups conversations by recency for the sidebar.
//
// Buckets are recomputed on every read against the supplied clock:
//   - Today: updated since local midnight
//   - Previous 7 Days: updated within the last seven days
//   - Previous 30 Days: updated within the last thirty days
//
// Older conversations are left out of every bucket and only counted in
// Grouping.Hidden. A search query filters titles case-insensitively and
// drops buckets that end up empty.
package history
