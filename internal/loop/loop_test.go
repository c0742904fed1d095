package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_TickRunsSnapshot(t *testing.T) {
	l := New()

	var order []int
	require.NoError(t, l.Post(func() {
		order = append(order, 1)
		_ = l.Post(func() { order = append(order, 3) })
	}))
	require.NoError(t, l.Post(func() { order = append(order, 2) }))

	assert.Equal(t, 2, l.Tick())
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, l.Len())

	assert.Equal(t, 1, l.Tick())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, l.Tick())
}

func TestLoop_Drain(t *testing.T) {
	l := New()

	count := 0
	var step func()
	step = func() {
		count++
		if count < 5 {
			_ = l.Post(step)
		}
	}
	require.NoError(t, l.Post(step))

	assert.Equal(t, 5, l.Drain())
	assert.Equal(t, 5, count)

	stats := l.Stats()
	assert.Equal(t, uint64(5), stats.Posted)
	assert.Equal(t, uint64(5), stats.Executed)
	assert.Equal(t, uint64(5), stats.Ticks)
	assert.Equal(t, 0, stats.Pending)
}

func TestLoop_PanicIsContained(t *testing.T) {
	l := New()

	ran := false
	_ = l.Post(func() { panic("kaput") })
	_ = l.Post(func() { ran = true })

	assert.NotPanics(t, func() { l.Drain() })
	assert.True(t, ran)
	assert.Equal(t, uint64(1), l.Stats().Panics)
}

func TestLoop_PostAfterClose(t *testing.T) {
	l := New()
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
	assert.NoError(t, l.Post(nil))
}

func TestLoop_Run(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	require.NoError(t, l.Post(func() { close(ran) }))

	select {
	case <-ran:
	case <-ctx.Done():
		t.Fatal("callback did not run")
	}

	require.NoError(t, l.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after Close")
	}
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}
