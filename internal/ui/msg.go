package ui

import (
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/events"
	"github.com/rovshanmuradov/sol-splitter/internal/payment"
)

// StateMsg reports a workflow transition.
type StateMsg struct {
	From string
	To   string
}

// FailedMsg carries the failure event of the attempt.
type FailedMsg struct {
	Event *events.PaymentFailedEvent
}

// PriceMsg carries a fresh SOL/USD price.
type PriceMsg struct {
	Price float64
}

// ApprovalRequestMsg asks the user to approve an envelope. Exactly one value is sent on Reply.
type ApprovalRequestMsg struct {
	Envelope *transaction.Envelope
	Reply    chan<- bool
}

// DoneMsg ends the progress view with the outcome of Submit.
type DoneMsg struct {
	Result *payment.Result
	Err    error
}
