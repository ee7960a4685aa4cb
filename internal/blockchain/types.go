// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// BlockhashSource supplies the recent blockhash that authorizes a new transaction.
type BlockhashSource interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// SettlementChecker reports whether a broadcast transaction has settled.
// An on-chain execution failure is returned as an error, not as false.
type SettlementChecker interface {
	ConfirmSettlement(ctx context.Context, signature solana.Signature) (bool, error)
}

// BalanceSource returns an account balance in whole SOL.
type BalanceSource interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (float64, error)
}

// Sender broadcasts a signed transaction.
type Sender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Client is the full network boundary implemented by solbc.Client.
type Client interface {
	BlockhashSource
	SettlementChecker
	BalanceSource
	Sender
}
