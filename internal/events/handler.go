// internal/events/handler.go
package events

import (
	"context"
	"sync"
)

// Handler reacts to one event. Handlers run on the bus goroutine and should return quickly.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(event Event) error
}

type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id       uint64
	eventBus *Bus
	typ      EventType
	once     sync.Once
}

// Unsubscribe is idempotent.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.eventBus.unsubscribe(s.id, s.typ) })
}
