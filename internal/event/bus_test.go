package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/statecore/internal/event/topic"
)

// recorder collects the events it handles.
type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Handle(e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) names() []topic.Topic {
	out := make([]topic.Topic, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func TestNew(t *testing.T) {
	b := New()
	require.NotNil(t, b)

	assert.NotEmpty(t, b.ListenID())
	assert.Same(t, b, b.Owner())
	assert.Equal(t, 0, b.Subscriptions())
	assert.NotEqual(t, b.ListenID(), New().ListenID())
}

func TestBus_PublishOrder(t *testing.T) {
	b := New()

	var order []string
	b.SubscribeFunc("ping", func(Event) error { order = append(order, "first"); return nil }, nil)
	b.SubscribeFunc("ping", func(Event) error { order = append(order, "second"); return nil }, nil)
	b.SubscribeFunc(topic.All, func(e Event) error { order = append(order, "all:"+e.Name.String()); return nil }, nil)

	require.NoError(t, b.Publish("ping"))

	assert.Equal(t, []string{"first", "second", "all:ping"}, order)
}

func TestBus_PublishArgsAndContext(t *testing.T) {
	owner := &struct{ name string }{"owner"}
	ctx := &struct{ name string }{"ctx"}
	b := New(WithOwner(owner))

	withCtx := &recorder{}
	withoutCtx := &recorder{}
	b.Subscribe("ping", withCtx, ctx)
	b.Subscribe("ping", withoutCtx, nil)

	require.NoError(t, b.Publish("ping", 1, "two"))

	require.Len(t, withCtx.events, 1)
	assert.Equal(t, []any{1, "two"}, withCtx.events[0].Args)
	assert.Same(t, ctx, withCtx.events[0].Context)
	assert.Same(t, owner, withoutCtx.events[0].Context)
	assert.Equal(t, "two", withoutCtx.events[0].Arg(1))
	assert.Nil(t, withoutCtx.events[0].Arg(5))
}

func TestBus_NameLists(t *testing.T) {
	b := New()
	r := &recorder{}

	b.Subscribe("a b  c", r, nil)
	assert.Equal(t, 3, b.Subscriptions())

	require.NoError(t, b.Publish("c a"))
	assert.Equal(t, []topic.Topic{"c", "a"}, r.names())
}

func TestBus_PublishAllDirectlyFiresWildcardTwice(t *testing.T) {
	b := New()
	r := &recorder{}
	b.Subscribe(topic.All, r, nil)

	require.NoError(t, b.Publish(topic.All))

	assert.Equal(t, []topic.Topic{topic.All, topic.All}, r.names())
}

func TestBus_NilHandlerIgnored(t *testing.T) {
	b := New()
	b.Subscribe("ping", nil, nil)
	b.SubscribeOnce("ping", nil, nil)
	b.SubscribeFunc("ping", nil, nil)

	assert.Equal(t, 0, b.Subscriptions())
	assert.NoError(t, b.Publish("ping"))
}

func TestBus_SubscribeMapSortedOrder(t *testing.T) {
	b := New()
	var order []topic.Topic
	h := func(e Event) error { order = append(order, e.Name); return nil }

	b.SubscribeMap(map[topic.Topic]Handler{
		"b": HandlerFunc(h),
		"a": HandlerFunc(h),
	}, nil)
	b.SubscribeFunc(topic.All, func(e Event) error { return nil }, nil)

	require.NoError(t, b.Publish("a b"))
	assert.Equal(t, []topic.Topic{"a", "b"}, order)
	assert.Equal(t, 3, b.Subscriptions())
}

func TestBus_Unsubscribe(t *testing.T) {
	ctxA := &struct{ int }{1}
	ctxB := &struct{ int }{2}

	setup := func() (*Bus, *Callback, *Callback) {
		b := New()
		h1 := Func(func(Event) error { return nil })
		h2 := Func(func(Event) error { return nil })
		b.Subscribe("x", h1, ctxA)
		b.Subscribe("x", h2, ctxB)
		b.Subscribe("y", h1, ctxB)
		b.Subscribe("y", h2, ctxA)
		return b, h1, h2
	}

	t.Run("everything", func(t *testing.T) {
		b, _, _ := setup()
		b.Unsubscribe("", nil, nil)
		assert.Equal(t, 0, b.Subscriptions())
	})

	t.Run("by name", func(t *testing.T) {
		b, _, _ := setup()
		b.Unsubscribe("x", nil, nil)
		assert.Equal(t, 2, b.Subscriptions())
		assert.False(t, b.HasSubscribers("x"))
		assert.True(t, b.HasSubscribers("y"))
	})

	t.Run("by handler across names", func(t *testing.T) {
		b, h1, _ := setup()
		b.Unsubscribe("", h1, nil)
		assert.Equal(t, 2, b.Subscriptions())
	})

	t.Run("by context", func(t *testing.T) {
		b, _, _ := setup()
		b.Unsubscribe("", nil, ctxA)
		assert.Equal(t, 2, b.Subscriptions())
	})

	t.Run("by name and handler", func(t *testing.T) {
		b, h1, _ := setup()
		b.Unsubscribe("x", h1, nil)
		assert.Equal(t, 3, b.Subscriptions())
	})

	t.Run("by handler and context", func(t *testing.T) {
		b, h1, _ := setup()
		b.Unsubscribe("", h1, ctxB)
		assert.Equal(t, 3, b.Subscriptions())
		assert.True(t, b.HasSubscribers("y"))
	})

	t.Run("unknown name", func(t *testing.T) {
		b, _, _ := setup()
		b.Unsubscribe("nope", nil, nil)
		assert.Equal(t, 4, b.Subscriptions())
	})

	t.Run("func handler never matches by identity", func(t *testing.T) {
		b := New()
		fn := HandlerFunc(func(Event) error { return nil })
		b.Subscribe("x", fn, nil)
		b.Unsubscribe("x", fn, nil)
		assert.Equal(t, 1, b.Subscriptions())
	})

	t.Run("all", func(t *testing.T) {
		b, _, _ := setup()
		b.UnsubscribeAll()
		assert.Equal(t, 0, b.Subscriptions())
		assert.NoError(t, b.Publish("x y"))
	})
}

func TestBus_HandlerErrorAborts(t *testing.T) {
	b := New()
	boom := errors.New("boom")

	later := &recorder{}
	b.SubscribeFunc("ping", func(Event) error { return boom }, nil)
	b.Subscribe("ping", later, nil)

	err := b.Publish("ping")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, topic.Topic("ping"), herr.Topic)
	assert.Empty(t, later.events)
	assert.Equal(t, uint64(1), b.Stats().HandlerErrors)
}

func TestBus_HandlerPanicPropagates(t *testing.T) {
	b := New()
	b.SubscribeFunc("ping", func(Event) error { panic("kaput") }, nil)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = b.Publish("ping")
	})
}

func TestBus_Isolation(t *testing.T) {
	b := New(WithIsolation(true))
	boom := errors.New("boom")

	later := &recorder{}
	b.SubscribeFunc("ping", func(Event) error { panic("kaput") }, nil)
	b.SubscribeFunc("ping", func(Event) error { return boom }, nil)
	b.Subscribe("ping", later, nil)

	err := b.Publish("ping")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Len(t, later.events, 1)

	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, topic.Topic("ping"), perr.Topic)
	assert.Equal(t, "kaput", perr.Value)
	assert.NotEmpty(t, perr.Stack)

	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, topic.Topic("ping"), herr.Topic)

	stats := b.Stats()
	assert.Equal(t, uint64(1), stats.HandlerPanics)
	assert.Equal(t, uint64(1), stats.HandlerErrors)
	assert.Equal(t, uint64(1), stats.Succeeded)
	assert.Equal(t, uint64(3), stats.Delivered)
}

func TestBus_SubscribeOnce(t *testing.T) {
	b := New()
	r := &recorder{}

	b.SubscribeOnce("a b", r, nil)
	assert.Equal(t, 2, b.Subscriptions())

	require.NoError(t, b.Publish("a"))
	require.NoError(t, b.Publish("a"))
	require.NoError(t, b.Publish("b"))

	assert.Equal(t, []topic.Topic{"a", "b"}, r.names())
	assert.Equal(t, 0, b.Subscriptions())
}

func TestBus_SubscribeOnceRepublishFromHandler(t *testing.T) {
	b := New()
	calls := 0
	h := Func(func(Event) error {
		calls++
		return b.Publish("ping")
	})

	b.SubscribeOnce("ping", h, nil)
	require.NoError(t, b.Publish("ping"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Subscriptions())
}

func TestBus_SubscribeOnceRemovableByOriginal(t *testing.T) {
	b := New()
	h := Func(func(Event) error { return nil })

	b.SubscribeOnceMap(map[topic.Topic]Handler{"a": h, "b": h}, nil)
	assert.Equal(t, 2, b.Subscriptions())

	b.Unsubscribe("", h, nil)
	assert.Equal(t, 0, b.Subscriptions())
}

func TestBus_SnapshotIsolation(t *testing.T) {
	b := New()

	var order []string
	late := Func(func(Event) error { order = append(order, "late"); return nil })
	second := Func(func(Event) error { order = append(order, "second"); return nil })

	b.SubscribeFunc("ping", func(Event) error {
		order = append(order, "first")
		b.Subscribe("ping", late, nil)
		b.Unsubscribe("ping", second, nil)
		return nil
	}, nil)
	b.Subscribe("ping", second, nil)

	require.NoError(t, b.Publish("ping"))
	assert.Equal(t, []string{"first", "second"}, order)

	order = nil
	require.NoError(t, b.Publish("ping"))
	assert.Equal(t, []string{"first", "late"}, order)
}

func TestBus_SnapshotIsolationForWildcard(t *testing.T) {
	b := New()
	r := &recorder{}

	b.SubscribeFunc("ping", func(Event) error {
		b.Subscribe(topic.All, r, nil)
		return nil
	}, nil)

	require.NoError(t, b.Publish("ping"))
	assert.Empty(t, r.events)

	require.NoError(t, b.Publish("ping"))
	assert.Len(t, r.events, 1)
}

func TestBus_Stats(t *testing.T) {
	b := New()
	b.SubscribeFunc("a", func(Event) error { return nil }, nil)
	b.SubscribeFunc(topic.All, func(Event) error { return nil }, nil)

	require.NoError(t, b.Publish("a b"))

	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(3), stats.Delivered)
	assert.Equal(t, uint64(3), stats.Succeeded)
	assert.Zero(t, stats.HandlerErrors)
	assert.Equal(t, int64(2), stats.Subscriptions)
}
