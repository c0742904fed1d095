package agent

import (
	"context"
	"sync/atomic"
)

// CancelToken is the cancellation flag of one submission. Requesting it
// also cancels the context the task runs with.
type CancelToken struct {
	requested atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

type tokenKey struct{}

func newToken(parent context.Context) *CancelToken {
	t := &CancelToken{}
	ctx, cancel := context.WithCancel(parent)
	t.ctx = context.WithValue(ctx, tokenKey{}, t)
	t.cancel = cancel
	return t
}

// IsRequested returns true once cancellation has been requested.
func (t *CancelToken) IsRequested() bool {
	return t.requested.Load()
}

// Request marks the token cancelled. It is safe to call more than once and
// from any goroutine.
func (t *CancelToken) Request() {
	t.requested.Store(true)
	t.cancel()
}

// Context returns the context bound to the token.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}

// release frees the context without requesting cancellation.
func (t *CancelToken) release() {
	t.cancel()
}

// TokenFrom returns the token bound to a task context.
func TokenFrom(ctx context.Context) (*CancelToken, bool) {
	t, ok := ctx.Value(tokenKey{}).(*CancelToken)
	return t, ok
}
