package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/sol-splitter/internal/events"
)

// Subscriber is the consumer side of the event bus.
type Subscriber interface {
	SubscribeFunc(eventType events.EventType, fn func(context.Context, events.Event) error) events.Subscription
}

// Forward relays payment and price events from bus to send until the returned func is called.
func Forward(bus Subscriber, send func(tea.Msg)) (stop func()) {
	subs := []events.Subscription{
		bus.SubscribeFunc(events.PaymentStateChanged, func(_ context.Context, e events.Event) error {
			if sc, ok := e.(*events.PaymentStateChangedEvent); ok {
				send(StateMsg{From: sc.From, To: sc.To})
			}
			return nil
		}),
		bus.SubscribeFunc(events.PaymentFailed, func(_ context.Context, e events.Event) error {
			if f, ok := e.(*events.PaymentFailedEvent); ok {
				send(FailedMsg{Event: f})
			}
			return nil
		}),
		bus.SubscribeFunc(events.PriceUpdated, func(_ context.Context, e events.Event) error {
			if p, ok := e.(*events.PriceUpdatedEvent); ok {
				send(PriceMsg{Price: p.CurrentPrice})
			}
			return nil
		}),
	}
	return func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
}
