// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/jeranaias/repgen/internal/model"
)

// Period identifies a recency bucket.
type Period int

const (
	PeriodToday Period = iota
	PeriodPrevious7Days
	PeriodPrevious30Days
	periodCount
)

// Label returns the heading shown above the bucket.
func (p Period) Label() string {
	switch p {
	case PeriodToday:
		return "Today"
	case PeriodPrevious7Days:
		return "Previous 7 Days"
	case PeriodPrevious30Days:
		return "Previous 30 Days"
	default:
		return ""
	}
}

// Bucket is one non-empty group of conversations, most recent first.
type Bucket struct {
	Period        Period
	Conversations []model.Conversation
}

// Grouping is the result of Group.
type Grouping struct {
	Buckets []Bucket

	// Hidden counts conversations older than thirty days that matched the
	// query but belong to no bucket.
	Hidden int
}

// Len returns the number of conversations across all buckets.
func (g Grouping) Len() int {
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Conversations)
	}
	return n
}

// Flatten returns the bucketed conversations in display order.
func (g Grouping) Flatten() []model.Conversation {
	out := make([]model.Conversation, 0, g.Len())
	for _, b := range g.Buckets {
		out = append(out, b.Conversations...)
	}
	return out
}

// Classify returns the bucket for a conversation last updated at updated.
// ok is false for conversations older than thirty days.
func Classify(updated, now time.Time) (p Period, ok bool) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch {
	case !updated.Before(midnight):
		return PeriodToday, true
	case !updated.Before(now.AddDate(0, 0, -7)):
		return PeriodPrevious7Days, true
	case !updated.Before(now.AddDate(0, 0, -30)):
		return PeriodPrevious30Days, true
	default:
		return 0, false
	}
}

// Group partitions convs into recency buckets relative to now, keeping only
// titles that contain query (case-insensitive). An empty query keeps all.
func Group(convs []model.Conversation, now time.Time, query string) Grouping {
	match := Matcher(query)

	var (
		byPeriod [periodCount][]model.Conversation
		result   Grouping
	)
	for _, conv := range convs {
		if conv.Archived || !match(conv.DisplayTitle()) {
			continue
		}
		p, ok := Classify(conv.UpdatedAt, now)
		if !ok {
			result.Hidden++
			continue
		}
		byPeriod[p] = append(byPeriod[p], conv)
	}

	for p := Period(0); p < periodCount; p++ {
		list := byPeriod[p]
		if len(list) == 0 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		})
		result.Buckets = append(result.Buckets, Bucket{Period: p, Conversations: list})
	}
	return result
}

// Matcher returns a case-insensitive substring predicate for query.
// Surrounding whitespace in the query is ignored.
func Matcher(query string) func(string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return func(string) bool { return true }
	}
	fold := cases.Fold()
	needle := fold.String(query)
	return func(title string) bool {
		return strings.Contains(fold.String(title), needle)
	}
}
