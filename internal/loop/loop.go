package loop

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Loop is a FIFO queue of callbacks run on one goroutine at a time.
// Post is safe from any goroutine; Tick, Drain and Run must not be called
// concurrently with each other.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	// wake holds a token while the queue may be non-empty.
	wake chan struct{}

	logger zerolog.Logger

	// Stats
	posted   atomic.Uint64
	executed atomic.Uint64
	panics   atomic.Uint64
	ticks    atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report callback panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With().Str("component", "loop").Logger()
	return l
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	l.posted.Add(1)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Tick runs the callbacks queued when it starts and returns how many ran.
// Callbacks they post run on a later tick.
func (l *Loop) Tick() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}
	l.ticks.Add(1)
	for _, fn := range batch {
		l.run(fn)
	}
	return len(batch)
}

// Drain ticks until the queue is empty and returns the callbacks run.
func (l *Loop) Drain() int {
	total := 0
	for {
		n := l.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Run ticks whenever callbacks are posted until ctx is done or the loop is
// closed. Callbacks still queued at Close are run before Run returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		if l.isClosed() {
			l.Drain()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops the loop from accepting callbacks and wakes Run.
func (l *Loop) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats returns loop statistics.
func (l *Loop) Stats() Stats {
	return Stats{
		Posted:   l.posted.Load(),
		Executed: l.executed.Load(),
		Panics:   l.panics.Load(),
		Ticks:    l.ticks.Load(),
		Pending:  l.Len(),
	}
}

// Stats contains loop statistics.
type Stats struct {
	Posted   uint64
	Executed uint64
	Panics   uint64
	Ticks    uint64
	Pending  int
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// run executes one callback. A panicking callback is logged and dropped so
// the rest of the queue still runs.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("callback panicked")
		}
	}()
	fn()
	l.executed.Add(1)
}
