// Package loop provides the single goroutine that drives buses, stores and
// agents, and Future, a pending value settled from any goroutine whose
// continuations always run on that goroutine.
//
// Everything that touches core state is posted to a Loop:
//
//	l := loop.New()
//	go l.Run(ctx)
//
//	_ = l.Post(func() {
//	    _ = store.Set(attrs.Assign("zoom", 3), attrs.Options{})
//	})
//
// Tests usually skip Run and call Drain, which runs queued callbacks, and
// the callbacks they queue, until the loop is idle.
package loop
