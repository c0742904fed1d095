package loop

import (
	"context"
	"sync"
)

// Future is a value that becomes available later. It settles exactly once,
// either resolved with a value or rejected with an error. Resolve and
// Reject may be called from any goroutine; Then callbacks run on the loop.
type Future struct {
	loop *Loop

	mu        sync.Mutex
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
	done      chan struct{}
}

// NewFuture creates a pending future whose callbacks run on l.
func NewFuture(l *Loop) *Future {
	return &Future{loop: l, done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved(l *Loop, v any) *Future {
	f := NewFuture(l)
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected(l *Loop, err error) *Future {
	f := NewFuture(l)
	f.Reject(err)
	return f
}

// Resolve settles the future with v. If v is itself a *Future, f follows
// it and settles when v does. Calls after the first settlement are ignored.
func (f *Future) Resolve(v any) {
	if other, ok := v.(*Future); ok && other != nil {
		if other == f {
			f.settle(nil, ErrCycle)
			return
		}
		other.Then(func(val any, err error) {
			f.settle(val, err)
		})
		return
	}
	f.settle(v, nil)
}

// Reject settles the future with err. A nil err becomes ErrRejected.
func (f *Future) Reject(err error) {
	if err == nil {
		err = ErrRejected
	}
	f.settle(nil, err)
}

// Then registers fn to run on the loop with the outcome. If the future has
// already settled, fn is posted immediately; it never runs synchronously.
func (f *Future) Then(fn func(v any, err error)) {
	if fn == nil {
		return
	}

	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()

	f.post(fn, v, err)
}

// Settled returns true once the future has a value or an error.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the outcome and whether the future has settled.
func (f *Future) Result() (any, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.settled
}

// Wait blocks until the future settles or ctx is done. It must not be
// called from the loop goroutine when the future depends on the loop.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		v, err, _ := f.Result()
		return v, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) settle(v any, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		f.post(fn, v, err)
	}
}

func (f *Future) post(fn func(any, error), v any, err error) {
	if perr := f.loop.Post(func() { fn(v, err) }); perr != nil {
		f.loop.logger.Debug().Err(perr).Msg("future callback dropped")
	}
}

// Go runs fn on a new goroutine and returns a future for its outcome.
// A panic in fn rejects the future with a *PanicError.
func Go(ctx context.Context, l *Loop, fn func(ctx context.Context) (any, error)) *Future {
	f := NewFuture(l)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(&PanicError{Value: r})
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// All returns a future resolved with a copy of values in which every
// *Future has been replaced by its value. It rejects with the first
// rejection among them.
func All(l *Loop, values []any) *Future {
	out := make([]any, len(values))
	copy(out, values)

	result := NewFuture(l)
	remaining := 0
	for _, v := range values {
		if f, ok := v.(*Future); ok && f != nil {
			remaining++
		}
	}
	if remaining == 0 {
		result.Resolve(out)
		return result
	}

	// Then callbacks all run on the loop, so remaining needs no lock.
	for i, v := range values {
		f, ok := v.(*Future)
		if !ok || f == nil {
			continue
		}
		f.Then(func(val any, err error) {
			if err != nil {
				result.Reject(err)
				return
			}
			out[i] = val
			remaining--
			if remaining == 0 {
				result.Resolve(out)
			}
		})
	}
	return result
}
