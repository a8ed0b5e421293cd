package events

import (
	"sync"

	"kingo/internal/logger"
)

// Handler is invoked once per published event. A handler must not block
// indefinitely; failures are the handler's own responsibility to log —
// the bus never retries or propagates a handler panic/error to Publish.
type Handler func(DomainEvent)

// Bus is a synchronous, type-indexed publisher. Publish calls every
// subscriber for the event's Kind, in subscription order, and waits for
// all of them to return before returning itself. Handler dispatch is
// isolated: one handler's failure never prevents another from running.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers h to run whenever an event of kind k is published.
func (b *Bus) Subscribe(k Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], h)
}

// Publish fans ev out to every handler subscribed to ev.Kind. The
// subscriber list is snapshotted under lock; handlers run outside the
// lock so a slow or reentrant handler cannot stall Subscribe/Publish
// from other goroutines.
func (b *Bus) Publish(ev DomainEvent) {
	b.mu.RLock()
	snapshot := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	for _, h := range snapshot {
		invoke(h, ev)
	}
}

// invoke isolates a single handler's panic so it cannot take down the
// publisher or starve sibling handlers of their turn.
func invoke(h Handler, ev DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error().Interface("panic", r).Str("event", string(ev.Kind)).Msg("event handler panicked")
		}
	}()
	h(ev)
}
