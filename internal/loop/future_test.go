package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveRunsCallbacksOnLoop(t *testing.T) {
	l := New()
	f := NewFuture(l)

	var got any
	f.Then(func(v any, err error) {
		require.NoError(t, err)
		got = v
	})

	f.Resolve(7)
	assert.Nil(t, got, "callback must wait for the loop")

	l.Drain()
	assert.Equal(t, 7, got)
}

func TestFuture_SettlesOnce(t *testing.T) {
	l := New()
	f := NewFuture(l)

	f.Resolve(1)
	f.Resolve(2)
	f.Reject(errors.New("late"))

	v, err, ok := f.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_ThenAfterSettle(t *testing.T) {
	l := New()
	f := Rejected(l, nil)

	var got error
	f.Then(func(_ any, err error) { got = err })
	assert.Nil(t, got)

	l.Drain()
	assert.ErrorIs(t, got, ErrRejected)
}

func TestFuture_ResolveWithFuture(t *testing.T) {
	l := New()
	inner := NewFuture(l)
	outer := NewFuture(l)

	outer.Resolve(inner)
	assert.False(t, outer.Settled())

	inner.Resolve("done")
	l.Drain()

	v, err, ok := outer.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFuture_ResolveWithItself(t *testing.T) {
	l := New()
	f := NewFuture(l)
	f.Resolve(f)

	_, err, ok := f.Result()
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestFuture_Wait(t *testing.T) {
	l := New()
	f := Resolved(l, "x")

	v, err := f.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "x", v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFuture(l).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGo(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok := Go(ctx, l, func(context.Context) (any, error) { return 42, nil })
	v, err := ok.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	failed := Go(ctx, l, func(context.Context) (any, error) { return nil, boom })
	_, err = failed.Wait(ctx)
	assert.ErrorIs(t, err, boom)

	panicked := Go(ctx, l, func(context.Context) (any, error) { panic("kaput") })
	_, err = panicked.Wait(ctx)
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "kaput", perr.Value)
}

func TestAll(t *testing.T) {
	t.Run("no futures", func(t *testing.T) {
		l := New()
		f := All(l, []any{1, "a"})

		v, err, ok := f.Result()
		assert.True(t, ok)
		assert.NoError(t, err)
		assert.Equal(t, []any{1, "a"}, v)
	})

	t.Run("waits for every future", func(t *testing.T) {
		l := New()
		a, b := NewFuture(l), NewFuture(l)
		f := All(l, []any{a, "mid", b})

		b.Resolve(2)
		l.Drain()
		assert.False(t, f.Settled())

		a.Resolve(1)
		l.Drain()

		v, err, ok := f.Result()
		assert.True(t, ok)
		assert.NoError(t, err)
		assert.Equal(t, []any{1, "mid", 2}, v)
	})

	t.Run("rejects on first failure", func(t *testing.T) {
		l := New()
		boom := errors.New("boom")
		a := NewFuture(l)
		f := All(l, []any{a, Rejected(l, boom)})

		l.Drain()
		_, err, ok := f.Result()
		assert.True(t, ok)
		assert.ErrorIs(t, err, boom)

		a.Resolve(1)
		l.Drain()
		_, err, _ = f.Result()
		assert.ErrorIs(t, err, boom)
	})
}
