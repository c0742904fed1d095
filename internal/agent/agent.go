package agent

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/event"
	"github.com/dshills/statecore/internal/event/topic"
	"github.com/dshills/statecore/internal/loop"
)

// Agent runs the latest submitted task and commits its result.
//
// An Agent is not safe for concurrent use. Every method must be called on
// the loop goroutine the agent was created with.
type Agent struct {
	*event.Bus

	loop *loop.Loop
	ctx  context.Context

	value    any
	hasValue bool

	// token belongs to the most recent submission.
	token *CancelToken

	// pending holds the submission waiting for the scheduled run.
	pending   *submission
	scheduled bool
	closed    bool

	logger zerolog.Logger

	// Stats
	submitted atomic.Uint64
	coalesced atomic.Uint64
	executed  atomic.Uint64
	skipped   atomic.Uint64
	updated   atomic.Uint64
	rejected  atomic.Uint64
	discarded atomic.Uint64
}

type submission struct {
	id    string
	task  Task
	args  []any
	token *CancelToken
}

// New creates an agent scheduling its runs on l.
func New(l *loop.Loop, opts ...Option) *Agent {
	config := defaultAgentConfig()
	for _, opt := range opts {
		opt(&config)
	}

	a := &Agent{
		loop:   l,
		ctx:    config.ctx,
		logger: config.logger.With().Str("component", "agent").Logger(),
	}
	busOpts := append([]event.BusOption{
		event.WithOwner(a),
		event.WithLogger(config.logger),
	}, config.busOpts...)
	a.Bus = event.New(busOpts...)
	a.token = newToken(a.ctx)

	return a
}

// Value returns the last committed result.
func (a *Agent) Value() (any, bool) {
	return a.value, a.hasValue
}

// Token returns the live token.
func (a *Agent) Token() *CancelToken {
	return a.token
}

// Cancel requests the live token. The running task's outcome, if any, is
// discarded.
func (a *Agent) Cancel() {
	a.token.Request()
}

// Submit supersedes the current submission with task and args. Arguments
// that are *loop.Future values are resolved before the task runs.
//
// The task runs on a later loop turn; submissions made before then
// replace this one.
func (a *Agent) Submit(task Task, args ...any) error {
	if a.closed {
		return ErrClosed
	}
	if task == nil {
		task = Value(nil)
	}

	a.token.Request()
	a.token = newToken(a.ctx)
	a.pending = &submission{
		id:    uuid.NewString(),
		task:  task,
		args:  args,
		token: a.token,
	}
	a.submitted.Add(1)

	if a.scheduled {
		a.coalesced.Add(1)
		a.logger.Debug().Str("submission", a.pending.id).Msg("coalesced into scheduled run")
		return nil
	}

	a.scheduled = true
	if err := a.loop.Post(a.run); err != nil {
		a.scheduled = false
		a.pending = nil
		return err
	}
	a.logger.Debug().Str("submission", a.pending.id).Msg("run scheduled")
	return nil
}

// Close requests the live token and drops any pending submission.
func (a *Agent) Close() error {
	a.closed = true
	a.token.Request()
	a.pending = nil
	return nil
}

// Stats returns agent statistics.
func (a *Agent) Stats() Stats {
	return Stats{
		Submitted: a.submitted.Load(),
		Coalesced: a.coalesced.Load(),
		Executed:  a.executed.Load(),
		Skipped:   a.skipped.Load(),
		Updated:   a.updated.Load(),
		Rejected:  a.rejected.Load(),
		Discarded: a.discarded.Load(),
	}
}

// Stats contains agent statistics.
type Stats struct {
	// Submitted counts Submit calls.
	Submitted uint64

	// Coalesced counts submissions replaced before their run.
	Coalesced uint64

	// Executed counts task invocations.
	Executed uint64

	// Skipped counts runs abandoned before invocation.
	Skipped uint64

	// Updated counts committed results.
	Updated uint64

	// Rejected counts reported failures.
	Rejected uint64

	// Discarded counts superseded outcomes.
	Discarded uint64
}

// run takes the pending submission and starts it once its arguments resolve.
func (a *Agent) run() {
	a.scheduled = false
	sub := a.pending
	a.pending = nil
	if sub == nil {
		return
	}

	if !hasFutures(sub.args) {
		a.execute(sub, sub.args)
		return
	}

	loop.All(a.loop, sub.args).Then(func(v any, err error) {
		if err != nil {
			if a.current(sub) {
				a.settle(sub, nil, err)
			} else {
				a.skip(sub)
			}
			return
		}
		args, _ := v.([]any)
		a.execute(sub, args)
	})
}

func (a *Agent) execute(sub *submission, args []any) {
	if !a.current(sub) {
		a.skip(sub)
		return
	}

	if err := a.publish(topic.Submitted, a); err != nil {
		a.escalate(topic.Submitted, err)
	}
	if !a.current(sub) {
		a.skip(sub)
		return
	}

	a.executed.Add(1)
	result, err := a.invoke(sub, args)
	if err != nil {
		a.settle(sub, nil, err)
		return
	}
	if f, ok := result.(*loop.Future); ok && f != nil {
		f.Then(func(v any, err error) {
			a.settle(sub, v, err)
		})
		return
	}
	a.settle(sub, result, nil)
}

// invoke runs the task, turning a panic into a *PanicError.
func (a *Agent) invoke(sub *submission, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return sub.task.Run(sub.token.Context(), a, args)
}

// settle reports an outcome unless its submission was superseded.
func (a *Agent) settle(sub *submission, v any, err error) {
	defer sub.token.release()

	if sub.token.IsRequested() {
		a.discarded.Add(1)
		a.logger.Debug().Str("submission", sub.id).Msg("superseded outcome discarded")
		return
	}

	if err != nil {
		a.rejected.Add(1)
		a.logger.Debug().Err(err).Str("submission", sub.id).Msg("task rejected")
		a.report(topic.Rejected, err)
		return
	}

	a.value = v
	a.hasValue = true
	a.updated.Add(1)
	a.report(topic.Updated, v)
}

// report publishes an outcome and escalates a failing handler.
func (a *Agent) report(name topic.Topic, payload any) {
	if err := a.publish(name, payload, a); err != nil {
		a.escalate(name, err)
	}
}

// escalate publishes a handler failure of name as "error".
func (a *Agent) escalate(name topic.Topic, err error) {
	a.logger.Warn().Err(err).Str("event", string(name)).Msg("handler failed")
	if perr := a.publish(topic.Errored, err, a); perr != nil {
		a.logger.Error().Err(perr).Msg("error handler failed")
	}
}

// publish converts a handler panic into an error.
func (a *Agent) publish(name topic.Topic, args ...any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &event.PanicError{Topic: name, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return a.Publish(name, args...)
}

// current reports whether sub is still the live submission.
func (a *Agent) current(sub *submission) bool {
	return a.token == sub.token && !sub.token.IsRequested()
}

func (a *Agent) skip(sub *submission) {
	a.skipped.Add(1)
	sub.token.release()
	a.logger.Debug().Str("submission", sub.id).Msg("superseded before run")
}

func hasFutures(args []any) bool {
	for _, arg := range args {
		if _, ok := arg.(*loop.Future); ok {
			return true
		}
	}
	return false
}
