// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

var (
	ErrConfirmationTimeout = fmt.Errorf("transaction confirmation timeout: %w", types.ErrNetworkUnavailable)
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrInvalidInstruction  = errors.New("invalid instruction")
)

// ConfirmationMode selects how a broadcast payment is judged settled.
type ConfirmationMode string

const (
	// ModePoll asks the network until it reports settlement or the timeout expires.
	ModePoll ConfirmationMode = "poll"
	// ModeDelay waits a fixed time and assumes success without asking.
	ModeDelay ConfirmationMode = "delay"
)

type Config struct {
	Mode         ConfirmationMode
	Timeout      time.Duration
	PollInterval time.Duration
	Delay        time.Duration
}

// DefaultConfig matches the configuration defaults.
func DefaultConfig() Config {
	return Config{
		Mode:         ModePoll,
		Timeout:      60 * time.Second,
		PollInterval: 500 * time.Millisecond,
		Delay:        3 * time.Second,
	}
}

// Status is the outcome of waiting for a payment.
type Status struct {
	Signature string
	// Verified is false when the delay mode assumed success without a network check.
	Verified  bool
	Polls     int
	Timestamp time.Time
}
