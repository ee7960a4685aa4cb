// internal/blockchain/solbc/transaction/envelope.go
package transaction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// Envelope is an unsigned multi-transfer payment. It is built per attempt and never reused.
type Envelope struct {
	Sender          solana.PublicKey
	FeePayer        solana.PublicKey
	Total           uint64
	Transfers       []types.Transfer
	RecentBlockhash solana.Hash
}

// Distributed is the sum of all transfers in lamports.
func (e *Envelope) Distributed() uint64 {
	return types.SplitResult{Total: e.Total, Transfers: e.Transfers}.Sum()
}

// Transaction compiles the envelope into a solana transaction, one system transfer per recipient in order.
func (e *Envelope) Transaction() (*solana.Transaction, error) {
	instructions := make([]solana.Instruction, 0, len(e.Transfers))
	for i, tr := range e.Transfers {
		to, err := solana.PublicKeyFromBase58(tr.Address)
		if err != nil {
			return nil, fmt.Errorf("transfer %d: invalid destination %q: %w", i, tr.Address, err)
		}
		instructions = append(instructions, system.NewTransferInstruction(tr.Amount, e.Sender, to).Build())
	}

	tx, err := solana.NewTransaction(instructions, e.RecentBlockhash, solana.TransactionPayer(e.FeePayer))
	if err != nil {
		return nil, fmt.Errorf("failed to compile transaction: %w", err)
	}
	return tx, nil
}
