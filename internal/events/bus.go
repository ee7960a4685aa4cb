// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrBusClosed = errors.New("event bus is shut down")
	ErrBusFull   = errors.New("event queue full")
)

type handlerEntry struct {
	id      uint64
	handler Handler
}

// Bus queues published events and hands them to subscribers from a single goroutine,
// so every subscriber observes events in publish order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]handlerEntry
	nextID   uint64
	closed   bool

	queue    chan Event
	quit     chan struct{}
	finished chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// NewBus starts a bus holding at most bufferSize undelivered events.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		handlers: make(map[EventType][]handlerEntry),
		queue:    make(chan Event, bufferSize),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.Named("event_bus"),
	}
	go b.dispatch()
	return b
}

// Subscribe registers handler for eventType. Handlers of one type run in subscription order.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{id: id, handler: handler})

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.Uint64("subscription_id", id))
	return &subscription{id: id, eventBus: b, typ: eventType}
}

func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Publish queues event without blocking. It fails when the queue is full or the bus is shut down.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	default:
		b.logger.Warn("Dropping event, queue full", zap.String("event_type", string(event.Type())))
		return ErrBusFull
	}
}

// PublishSync runs every handler of event's type on the calling goroutine and joins their errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	entries := append([]handlerEntry(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if err := e.handler.Handle(ctx, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.Uint64("subscription_id", e.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch() {
	defer close(b.finished)
	for {
		select {
		case event := <-b.queue:
			_ = b.PublishSync(b.ctx, event)
		case <-b.quit:
			// Publish is refused once quit is closed, so the queue only shrinks from here.
			for {
				select {
				case event := <-b.queue:
					_ = b.PublishSync(b.ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) unsubscribe(id uint64, eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[eventType]
	for i, e := range entries {
		if e.id == id {
			entries = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(b.handlers, eventType)
	} else {
		b.handlers[eventType] = entries
	}
}

// Shutdown refuses new events and waits until the queued ones are delivered or ctx expires.
// Handlers still running when ctx expires see their context cancelled.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.quit)
	}
	b.mu.Unlock()

	select {
	case <-b.finished:
		b.cancel()
		b.logger.Debug("Event bus stopped")
		return nil
	case <-ctx.Done():
		b.cancel()
		b.logger.Warn("Event bus shutdown timed out", zap.Int("pending_events", len(b.queue)))
		return ctx.Err()
	}
}

// Stats is a snapshot of the bus queue and subscriptions.
type Stats struct {
	BufferSize      int
	PendingEvents   int
	HandlersPerType map[EventType]int
}

func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{
		BufferSize:      cap(b.queue),
		PendingEvents:   len(b.queue),
		HandlersPerType: make(map[EventType]int, len(b.handlers)),
	}
	for eventType, entries := range b.handlers {
		stats.HandlersPerType[eventType] = len(entries)
	}
	return stats
}
