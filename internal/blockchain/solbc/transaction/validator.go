// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("tx-validator"),
	}
}

// ValidateEnvelope checks an envelope before it is compiled and signed.
func (v *Validator) ValidateEnvelope(env *Envelope) error {
	if env.RecentBlockhash == (solana.Hash{}) {
		return ErrInvalidBlockhash
	}
	if len(env.Transfers) == 0 {
		return ErrInvalidInstruction
	}
	return nil
}

// ValidateTransaction checks a signed transaction before broadcast.
func (v *Validator) ValidateTransaction(tx *solana.Transaction) error {
	if err := v.ValidateSignatures(tx); err != nil {
		return err
	}

	if err := v.ValidateBlockhash(tx); err != nil {
		return err
	}

	return v.ValidateInstructions(tx.Message.Instructions)
}

func (v *Validator) ValidateSignatures(tx *solana.Transaction) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) == 0 || len(tx.Signatures) != required {
		v.logger.Debug("Signature count mismatch",
			zap.Int("have", len(tx.Signatures)),
			zap.Int("required", required))
		return ErrInvalidSignature
	}
	for _, sig := range tx.Signatures {
		if sig == (solana.Signature{}) {
			return ErrInvalidSignature
		}
	}
	return nil
}

func (v *Validator) ValidateBlockhash(tx *solana.Transaction) error {
	if tx.Message.RecentBlockhash == (solana.Hash{}) {
		return ErrInvalidBlockhash
	}
	return nil
}

func (v *Validator) ValidateInstructions(instructions []solana.CompiledInstruction) error {
	if len(instructions) == 0 {
		return ErrInvalidInstruction
	}
	return nil
}
