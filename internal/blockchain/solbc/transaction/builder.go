// internal/blockchain/solbc/transaction/builder.go
package transaction

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/split"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

// Builder assembles payment envelopes. It fetches one blockhash per call and never retries.
type Builder struct {
	source blockchain.BlockhashSource
	logger *zap.Logger
}

func NewBuilder(source blockchain.BlockhashSource, logger *zap.Logger) *Builder {
	return &Builder{
		source: source,
		logger: logger.Named("tx-builder"),
	}
}

// Build splits total lamports over recipients and pins the result to a fresh blockhash.
// The sender pays the fee.
func (b *Builder) Build(ctx context.Context, sender solana.PublicKey, recipients []types.Recipient, total uint64) (*Envelope, error) {
	if sender.IsZero() {
		return nil, types.NewValidationError("Please connect your wallet first")
	}
	for _, r := range recipients {
		if !validation.IsValidAddress(r.Address) {
			return nil, types.NewValidationError("One or more recipient addresses are invalid")
		}
	}

	result := split.Compute(total, recipients)
	if result.Sum() > total {
		return nil, types.NewValidationError("Split allocates more than the total amount")
	}

	hash, err := b.source.GetRecentBlockhash(ctx)
	if err != nil {
		b.logger.Warn("Failed to fetch recent blockhash", zap.Error(err))
		return nil, fmt.Errorf("failed to build payment: %w", asNetworkError(err))
	}

	env := &Envelope{
		Sender:          sender,
		FeePayer:        sender,
		Total:           total,
		Transfers:       result.Transfers,
		RecentBlockhash: hash,
	}
	b.logger.Debug("Envelope built",
		zap.String("sender", sender.String()),
		zap.Int("transfers", len(env.Transfers)),
		zap.Uint64("total_lamports", total),
		zap.Uint64("remainder_lamports", result.Remainder()),
		zap.String("blockhash", hash.String()))
	return env, nil
}

func asNetworkError(err error) error {
	switch types.KindOf(err) {
	case types.KindNetworkUnavailable, types.KindCancelled:
		return err
	}
	return types.NetworkError("get recent blockhash", err)
}
