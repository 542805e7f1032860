package room

import "lexiround/internal/game"

// Subscription is one push-stream listener. Events arrive on Events() in the
// order they were produced; the channel is closed when the subscriber is
// dropped (overflow), the subscription is closed, or the actor stops.
type Subscription struct {
	id    uint64
	actor *Actor
	ch    chan game.Event
}

// Events is the receive side of the subscription.
func (s *Subscription) Events() <-chan game.Event {
	return s.ch
}

// Close detaches the subscriber and triggers a presence broadcast. Safe to
// call more than once and after the actor stopped.
func (s *Subscription) Close() {
	_ = s.actor.do(func(a *Actor) {
		a.removeSub(s.id, false)
	})
}

// Subscribe attaches a push-stream listener. Its first two messages are
// {connected} and {snapshot}; every accepted command thereafter delivers its
// broadcast event. Each subscriber count change triggers a presence event.
func (a *Actor) Subscribe() (*Subscription, error) {
	var sub *Subscription
	if err := a.do(func(a *Actor) {
		a.nextSubID++
		sub = &Subscription{
			id:    a.nextSubID,
			actor: a,
			ch:    make(chan game.Event, a.subBuffer),
		}
		a.subs[sub.id] = sub
		// Buffer is at least 8, so the two greeting messages always fit.
		sub.ch <- game.Event{Type: game.EventConnected}
		sub.ch <- game.Event{Type: game.EventSnapshotSync, Snapshot: game.Project(a.state)}
		a.broadcast(a.presenceEvent())
	}); err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrClosed
	}
	return sub, nil
}

// SubscriberCount reports the current number of attached subscribers.
func (a *Actor) SubscriberCount() int {
	n := 0
	_ = a.do(func(a *Actor) { n = len(a.subs) })
	return n
}

func (a *Actor) presenceEvent() game.Event {
	return game.Event{Type: game.EventPresence, Count: len(a.subs)}
}

// removeSub detaches one subscriber. Runs inside the loop.
func (a *Actor) removeSub(id uint64, silent bool) {
	sub, ok := a.subs[id]
	if !ok {
		return
	}
	delete(a.subs, id)
	close(sub.ch)
	if !silent {
		a.broadcast(a.presenceEvent())
	}
}

// broadcast fans an event out to every subscriber. A subscriber whose
// outbound buffer is full is dropped, and each drop is announced with a
// fresh presence event. Runs inside the loop.
func (a *Actor) broadcast(ev game.Event) {
	for a.send(ev) {
		ev = a.presenceEvent()
	}
}

// send delivers to all current subscribers and reports whether any slow
// subscriber had to be dropped.
func (a *Actor) send(ev game.Event) bool {
	var dropped []uint64
	for id, sub := range a.subs {
		select {
		case sub.ch <- ev:
		default:
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		a.logger.Warn("dropping slow subscriber", "subscriber", id)
		a.removeSub(id, true)
	}
	return len(dropped) > 0
}
