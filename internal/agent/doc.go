// Package agent provides Agent, a single-flight task runner that
// publishes task outcomes through an embedded event bus.
//
// # Supersession
//
// Each Submit requests cancellation of the previous submission's token and
// installs a fresh one. Only the latest submission's outcome is ever
// reported: a task whose token was requested before it settles is
// discarded without an event, and its value is never committed.
//
// Submissions made before the agent's scheduled run reaches the loop
// replace each other, so a synchronous burst runs the task once, with the
// last submission's task and arguments.
//
// # Events
//
//	"submit"  (agent)          a submission is about to run
//	"update"  (value, agent)   a task succeeded and its value was committed
//	"reject"  (err, agent)     a task failed
//	"error"   (err, agent)     a "submit", "update" or "reject" handler failed
//
// # Cancellation
//
// Cancellation is cooperative. A running task observes it through its
// context, or through the token returned by TokenFrom:
//
//	a.Submit(agent.TaskFunc(func(ctx context.Context, a *agent.Agent, args []any) (any, error) {
//	    tok, _ := agent.TokenFrom(ctx)
//	    for _, chunk := range chunks {
//	        if tok.IsRequested() {
//	            return nil, ctx.Err()
//	        }
//	        process(chunk)
//	    }
//	    return len(chunks), nil
//	}))
package agent
