package notify

import "sync"

// Subscription identifies a handler registered on an Emitter.
type Subscription struct {
	event string
	id    uint64
}

func (s Subscription) Event() string {
	return s.event
}

type listener[P any] struct {
	id   uint64
	fn   func(P)
	once bool
}

// Emitter is a named-event publish/subscribe channel. Emit never calls
// handlers directly: delivery is deferred to the scheduler, and the handler
// list is read at delivery time.
type Emitter[P any] struct {
	scheduler *Scheduler

	mu        sync.Mutex
	seq       uint64
	listeners map[string][]listener[P]
}

func NewEmitter[P any](scheduler *Scheduler) *Emitter[P] {
	return &Emitter[P]{
		scheduler: scheduler,
		listeners: make(map[string][]listener[P]),
	}
}

func (e *Emitter[P]) On(event string, fn func(P)) Subscription {
	return e.add(event, fn, false)
}

// Once registers fn for a single delivery of event.
func (e *Emitter[P]) Once(event string, fn func(P)) Subscription {
	return e.add(event, fn, true)
}

// Off removes a subscription. It reports whether the subscription was still
// registered.
func (e *Emitter[P]) Off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.listeners[sub.event]
	for i, l := range list {
		if l.id == sub.id {
			e.listeners[sub.event] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Emitter[P]) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

func (e *Emitter[P]) Emit(event string, payload P) {
	e.scheduler.Defer(func() {
		e.dispatch(event, payload)
	})
}

func (e *Emitter[P]) add(event string, fn func(P), once bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	e.listeners[event] = append(e.listeners[event], listener[P]{id: e.seq, fn: fn, once: once})
	return Subscription{event: event, id: e.seq}
}

func (e *Emitter[P]) dispatch(event string, payload P) {
	e.mu.Lock()
	list := e.listeners[event]
	targets := make([]listener[P], len(list))
	copy(targets, list)

	kept := make([]listener[P], 0, len(list))
	for _, l := range list {
		if !l.once {
			kept = append(kept, l)
		}
	}
	e.listeners[event] = kept
	e.mu.Unlock()

	for _, l := range targets {
		l.fn(payload)
	}
}
