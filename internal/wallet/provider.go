// ==================================
// File: internal/wallet/provider.go
// ==================================
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// ErrNotConnected is returned by SignAndSend when no keypair is loaded.
var ErrNotConnected = errors.New("wallet not connected")

// Approver asks the owner to accept an envelope before it is signed.
type Approver interface {
	Approve(ctx context.Context, env *transaction.Envelope) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, env *transaction.Envelope) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, env *transaction.Envelope) (bool, error) {
	return f(ctx, env)
}

// AutoApprove accepts every envelope.
var AutoApprove Approver = ApproverFunc(func(context.Context, *transaction.Envelope) (bool, error) {
	return true, nil
})

// Provider signs payments with a local wallet after approval and broadcasts them.
type Provider struct {
	wallet    *Wallet
	sender    blockchain.Sender
	approver  Approver
	validator *transaction.Validator
	logger    *zap.Logger
}

// NewProvider creates a provider. A nil wallet gives a disconnected provider.
func NewProvider(w *Wallet, sender blockchain.Sender, approver Approver, logger *zap.Logger) *Provider {
	if approver == nil {
		approver = AutoApprove
	}
	logger = logger.Named("wallet")
	return &Provider{
		wallet:    w,
		sender:    sender,
		approver:  approver,
		validator: transaction.NewValidator(logger),
		logger:    logger,
	}
}

// Address returns the connected public key, or false when no wallet is loaded.
func (p *Provider) Address() (solana.PublicKey, bool) {
	if p.wallet == nil {
		return solana.PublicKey{}, false
	}
	return p.wallet.PublicKey, true
}

// SignAndSend asks for approval, signs and broadcasts env.
// A declined approval yields types.ErrUserRejected.
func (p *Provider) SignAndSend(ctx context.Context, env *transaction.Envelope) (solana.Signature, error) {
	if p.wallet == nil {
		return solana.Signature{}, types.ProviderError("sign and send", ErrNotConnected)
	}
	if !env.Sender.Equals(p.wallet.PublicKey) {
		return solana.Signature{}, types.ProviderError("sign and send",
			fmt.Errorf("envelope sender %s is not the connected wallet", env.Sender))
	}
	if err := p.validator.ValidateEnvelope(env); err != nil {
		return solana.Signature{}, types.ProviderError("sign and send", err)
	}

	approved, err := p.approver.Approve(ctx, env)
	if err != nil {
		if ctx.Err() != nil {
			return solana.Signature{}, ctx.Err()
		}
		return solana.Signature{}, types.ProviderError("approval", err)
	}
	if !approved {
		p.logger.Info("Payment declined by owner", zap.Int("transfers", len(env.Transfers)))
		return solana.Signature{}, types.ErrUserRejected
	}

	tx, err := env.Transaction()
	if err != nil {
		return solana.Signature{}, types.ProviderError("sign and send", err)
	}
	if err := p.wallet.SignTransaction(tx); err != nil {
		return solana.Signature{}, types.ProviderError("sign transaction", err)
	}
	if err := p.validator.ValidateTransaction(tx); err != nil {
		return solana.Signature{}, types.ProviderError("sign transaction", err)
	}

	sig, err := p.sender.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	p.logger.Info("Payment broadcast",
		zap.String("signature", sig.String()),
		zap.Int("transfers", len(env.Transfers)))
	return sig, nil
}
