// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import "context"

// scope groups the requests made on behalf of one selected conversation.
// Closing it cancels them all.
type scope struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func newScope(gen uint64) *scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &scope{gen: gen, ctx: ctx, cancel: cancel}
}

// bind derives a request context that ends when either parent or the scope does.
func (s *scope) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *scope) close() {
	s.cancel()
}
