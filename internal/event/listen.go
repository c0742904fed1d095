package event

import "github.com/dshills/statecore/internal/event/topic"

// ListenTo registers h on remote for names, with this bus's owner as the
// invocation context. The registration can be torn down with StopListening.
func (b *Bus) ListenTo(remote Publisher, names topic.Topic, h Handler) *Bus {
	if remote == nil || h == nil {
		return b
	}
	b.track(remote)
	remote.Subscribe(names, h, b.owner)
	return b
}

// ListenToOnce is ListenTo with SubscribeOnce semantics.
func (b *Bus) ListenToOnce(remote Publisher, names topic.Topic, h Handler) *Bus {
	if remote == nil || h == nil {
		return b
	}
	b.track(remote)
	remote.SubscribeOnce(names, h, b.owner)
	return b
}

// StopListening removes registrations this bus made on other publishers.
// A nil remote means every remote this bus listens to; names and h
// narrow the removal the same way as Unsubscribe.
func (b *Bus) StopListening(remote Publisher, names topic.Topic, h Handler) *Bus {
	if len(b.listeningTo) == 0 {
		return b
	}

	var remotes []Publisher
	if remote != nil {
		r, ok := b.listeningTo[remote.ListenID()]
		if !ok {
			return b
		}
		remotes = []Publisher{r}
	} else {
		remotes = make([]Publisher, 0, len(b.listeningTo))
		for _, r := range b.listeningTo {
			remotes = append(remotes, r)
		}
	}

	unfiltered := !names.IsValid() && h == nil
	for _, r := range remotes {
		r.Unsubscribe(names, h, b.owner)
		if unfiltered || r.Subscriptions() == 0 {
			delete(b.listeningTo, r.ListenID())
		}
	}

	b.logger.Debug().
		Str("topic", string(names)).
		Int("remotes", len(b.listeningTo)).
		Msg("stopped listening")
	return b
}

// Listening returns the number of remote publishers this bus listens to.
func (b *Bus) Listening() int {
	return len(b.listeningTo)
}

func (b *Bus) track(remote Publisher) {
	if b.listeningTo == nil {
		b.listeningTo = make(map[string]Publisher)
	}
	b.listeningTo[remote.ListenID()] = remote
}
