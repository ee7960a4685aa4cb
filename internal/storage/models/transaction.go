// internal/storage/models/transaction.go
package models

import (
	"time"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// TransactionRecord is one immutable history entry.
type TransactionRecord struct {
	ID         string            `json:"id"`
	Signature  string            `json:"signature"`
	Timestamp  time.Time         `json:"timestamp"`
	Amount     float64           `json:"amount"`
	Recipients []types.Recipient `json:"recipients"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
}
