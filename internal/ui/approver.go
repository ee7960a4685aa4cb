package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
)

// Approver routes wallet approval through the progress view.
type Approver struct {
	send func(tea.Msg)
}

func NewApprover(send func(tea.Msg)) *Approver {
	return &Approver{send: send}
}

func (a *Approver) Approve(ctx context.Context, env *transaction.Envelope) (bool, error) {
	reply := make(chan bool, 1)
	a.send(ApprovalRequestMsg{Envelope: env, Reply: reply})
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
