package source

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/attrs"
	"github.com/dshills/statecore/internal/loop"
)

// DefaultDebounce is the quiet period after a write before the file is
// re-applied.
const DefaultDebounce = 100 * time.Millisecond

// Watcher re-applies an attribute file to a store whenever it changes.
//
// The directory holding the file is watched, so editors that replace the
// file by rename are handled. Files are parsed on the watcher's goroutine;
// the resulting Set runs on the loop.
type Watcher struct {
	mu sync.Mutex

	path   string
	format Format
	store  *attrs.Store
	loop   *loop.Loop

	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	onError  func(error)
	setOpts  attrs.Options
	logger   zerolog.Logger

	// Lifecycle
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup

	// Stats
	events  atomic.Uint64
	reloads atomic.Uint64
	errors  atomic.Uint64
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithFormat overrides format detection.
func WithFormat(f Format) WatcherOption {
	return func(w *Watcher) {
		w.format = f
	}
}

// WithDebounce sets the quiet period after a write. Zero re-applies on
// every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler is called, on the loop, with load and set failures.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithSetOptions sets the options of every Set the watcher makes. An empty
// Source defaults to the watched path.
func WithSetOptions(opts attrs.Options) WatcherOption {
	return func(w *Watcher) {
		w.setOpts = opts
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher starts watching path and applying it to store through l.
// The file is not applied until it changes; call Sync first to load it.
func NewWatcher(l *loop.Loop, store *attrs.Store, path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		store:    store,
		loop:     l,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("component", "source").Str("path", abs).Logger()
	if w.setOpts.Source == "" {
		w.setOpts.Source = abs
	}

	if w.format == "" {
		if w.format, err = FormatFor(abs); err != nil {
			return nil, err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. A reload already handed to the loop still runs.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.closedWg.Wait()
	return err
}

// Reload re-applies the file now, as if it had been written.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}
	w.reload()
	return nil
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	return WatcherStats{
		Events:  w.events.Load(),
		Reloads: w.reloads.Load(),
		Errors:  w.errors.Load(),
	}
}

// WatcherStats contains watcher statistics.
type WatcherStats struct {
	// Events is the number of file system events for the file.
	Events uint64

	// Reloads is the number of successful loads handed to the loop.
	Reloads uint64

	// Errors is the number of load and watch failures.
	Errors uint64
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	w.events.Add(1)

	if w.debounce == 0 {
		w.reload()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload parses the file and posts the Set onto the loop.
func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	m, err := LoadAs(w.path, w.format)
	if err != nil {
		w.fail(err)
		return
	}
	w.reloads.Add(1)

	err = w.loop.Post(func() {
		if err := w.store.Set(attrs.Batch(m), w.setOpts); err != nil {
			w.errors.Add(1)
			w.logger.Warn().Err(err).Msg("applying attribute file failed")
			if w.onError != nil {
				w.onError(err)
			}
			return
		}
		w.logger.Debug().Int("keys", len(m)).Msg("attribute file applied")
	})
	if err != nil {
		w.logger.Debug().Err(err).Msg("reload dropped")
	}
}

func (w *Watcher) fail(err error) {
	w.errors.Add(1)
	w.logger.Warn().Err(err).Msg("watching attribute file failed")
	if w.onError != nil {
		_ = w.loop.Post(func() { w.onError(err) })
	}
}
