package event_test

import (
	"fmt"

	"github.com/dshills/statecore/internal/event"
	"github.com/dshills/statecore/internal/event/topic"
)

// Example_basicUsage demonstrates subscribing and publishing.
func Example_basicUsage() {
	bus := event.New()

	bus.SubscribeFunc("greet", func(e event.Event) error {
		fmt.Printf("hello, %v\n", e.Arg(0))
		return nil
	}, nil)

	if err := bus.Publish("greet", "world"); err != nil {
		fmt.Printf("Publish failed: %v\n", err)
	}

	// Output: hello, world
}

// Example_wildcard shows the "all" subscription.
func Example_wildcard() {
	bus := event.New()

	bus.SubscribeFunc(topic.All, func(e event.Event) error {
		fmt.Printf("saw %s\n", e.Name)
		return nil
	}, nil)

	_ = bus.Publish("change:zoom change")

	// Output:
	// saw change:zoom
	// saw change
}

// Example_once shows that a once handler runs a single time.
func Example_once() {
	bus := event.New()

	bus.SubscribeOnce("ready", event.Func(func(e event.Event) error {
		fmt.Println("ready")
		return nil
	}), nil)

	_ = bus.Publish("ready")
	_ = bus.Publish("ready")

	// Output: ready
}
