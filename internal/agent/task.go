package agent

import "context"

// Task is a unit of work run by an Agent.
//
// Run is called on the loop goroutine. It returns a value, an error, or a
// *loop.Future for work that completes later.
type Task interface {
	Run(ctx context.Context, a *Agent, args []any) (any, error)
}

// TaskFunc is a function adapter for Task.
type TaskFunc func(ctx context.Context, a *Agent, args []any) (any, error)

// Run implements the Task interface.
func (f TaskFunc) Run(ctx context.Context, a *Agent, args []any) (any, error) {
	return f(ctx, a, args)
}

// Value returns a task that always produces v.
func Value(v any) Task {
	return TaskFunc(func(context.Context, *Agent, []any) (any, error) {
		return v, nil
	})
}
