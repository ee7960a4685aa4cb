// internal/events/types.go
package events

import (
	"time"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// EventType represents the type of event.
type EventType string

const (
	// Payment workflow events
	PaymentStateChanged EventType = "payment.state_changed"
	PaymentConfirmed    EventType = "payment.confirmed"
	PaymentFailed       EventType = "payment.failed"

	// Price events
	PriceUpdated EventType = "price.updated"

	// Balance events
	BalanceChanged EventType = "balance.changed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

func (e BaseEvent) Type() EventType {
	return e.EventType
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// PaymentStateChangedEvent is emitted on every workflow transition.
type PaymentStateChangedEvent struct {
	BaseEvent
	AttemptID string
	From      string
	To        string
}

// PaymentConfirmedEvent is emitted once per attempt that reaches the confirmed state.
type PaymentConfirmedEvent struct {
	BaseEvent
	AttemptID   string
	Signature   string
	Amount      float64
	Recipients  []types.Recipient
	Verified    bool
	ExplorerURL string
}

// PaymentFailedEvent is emitted when an attempt enters the error state.
type PaymentFailedEvent struct {
	BaseEvent
	AttemptID string
	Signature string // empty unless the transaction was broadcast
	Kind      types.ErrorKind
	Message   string
	Err       error
}

// PriceUpdatedEvent is emitted when the SOL price changes.
type PriceUpdatedEvent struct {
	BaseEvent
	Currency      string
	CurrentPrice  float64
	PreviousPrice float64 // 0 on the first fetch
}

// BalanceChangedEvent is emitted when a wallet balance read differs from the last one.
type BalanceChangedEvent struct {
	BaseEvent
	WalletAddress string
	OldBalance    float64
	NewBalance    float64
}
