// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
)

// Monitor waits for a broadcast payment to settle.
type Monitor struct {
	checker blockchain.SettlementChecker
	logger  *zap.Logger
	config  Config
	now     func() time.Time
}

func NewMonitor(checker blockchain.SettlementChecker, logger *zap.Logger, config Config) *Monitor {
	def := DefaultConfig()
	if config.Mode == "" {
		config.Mode = def.Mode
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	return &Monitor{
		checker: checker,
		logger:  logger.Named("tx-monitor"),
		config:  config,
		now:     time.Now,
	}
}

// AwaitConfirmation blocks until the payment is settled, the timeout expires or ctx is done.
// Errors from the network are returned at once; only a "not yet" answer leads to another poll.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	if m.config.Mode == ModeDelay {
		return m.awaitDelay(ctx, signature)
	}
	return m.awaitPoll(ctx, signature)
}

func (m *Monitor) awaitDelay(ctx context.Context, signature solana.Signature) (*Status, error) {
	timer := time.NewTimer(m.config.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	m.logger.Warn("Payment marked confirmed without settlement check",
		zap.String("signature", signature.String()),
		zap.Duration("delay", m.config.Delay))
	return &Status{Signature: signature.String(), Verified: false, Timestamp: m.now()}, nil
}

func (m *Monitor) awaitPoll(ctx context.Context, signature solana.Signature) (*Status, error) {
	deadline := time.NewTimer(m.config.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		polls++
		confirmed, err := m.checker.ConfirmSettlement(ctx, signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Warn("Confirmation check failed",
				zap.String("signature", signature.String()),
				zap.Int("poll", polls),
				zap.Error(err))
			return nil, err
		}
		if confirmed {
			m.logger.Debug("Payment settled",
				zap.String("signature", signature.String()),
				zap.Int("polls", polls))
			return &Status{Signature: signature.String(), Verified: true, Polls: polls, Timestamp: m.now()}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			m.logger.Warn("Payment not settled before timeout",
				zap.String("signature", signature.String()),
				zap.Duration("timeout", m.config.Timeout),
				zap.Int("polls", polls))
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}
