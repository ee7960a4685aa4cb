// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/rpc"
	"github.com/rovshanmuradov/sol-splitter/internal/split"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// ClientConfig tunes the RPC adapter.
type ClientConfig struct {
	RateLimit  float64 // requests per second, 0 disables limiting
	Burst      int
	Commitment solanarpc.CommitmentType
}

// Client is a thin adapter over one or more Solana RPC nodes.
type Client struct {
	pool       *rpc.Pool
	limiter    *rate.Limiter
	commitment solanarpc.CommitmentType
	analyzer   *ErrorAnalyzer
	logger     *zap.Logger
}

// NewClient creates a client over the given RPC URLs.
func NewClient(urls []string, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}
	nodes := make([]*rpc.NodeClient, len(urls))
	for i, url := range urls {
		nodes[i] = rpc.NewClient(url)
	}
	return NewClientWithNodes(nodes, cfg, logger), nil
}

// NewClientWithNodes builds a client over prepared nodes.
func NewClientWithNodes(nodes []*rpc.NodeClient, cfg ClientConfig, logger *zap.Logger) *Client {
	logger = logger.Named("solbc-client")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.Commitment == "" {
		cfg.Commitment = solanarpc.CommitmentConfirmed
	}

	return &Client{
		pool:       rpc.NewPool(nodes, logger),
		limiter:    limiter,
		commitment: cfg.Commitment,
		analyzer:   NewErrorAnalyzer(logger),
		logger:     logger,
	}
}

func (c *Client) execute(ctx context.Context, method string, op func(context.Context, rpc.API) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.pool.Execute(ctx, method, op)
}

// GetRecentBlockhash returns the latest finalized blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.execute(ctx, "getLatestBlockhash", func(ctx context.Context, api rpc.API) error {
		result, err := api.GetLatestBlockhash(ctx, solanarpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		if result == nil || result.Value == nil {
			return errors.New("empty blockhash response")
		}
		hash = result.Value.Blockhash
		return nil
	})
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, types.NetworkError("get recent blockhash", err)
	}
	return hash, nil
}

// GetBalance returns the balance of owner in whole SOL.
func (c *Client) GetBalance(ctx context.Context, owner solana.PublicKey) (float64, error) {
	var lamports uint64
	err := c.execute(ctx, "getBalance", func(ctx context.Context, api rpc.API) error {
		result, err := api.GetBalance(ctx, owner, c.commitment)
		if err != nil {
			return err
		}
		lamports = result.Value
		return nil
	})
	if err != nil {
		c.logger.Error("GetBalance error", zap.String("owner", owner.String()), zap.Error(err))
		return 0, types.NetworkError("get balance", err)
	}
	return split.FromMinorUnits(lamports, types.LamportsPerSOL), nil
}

// ConfirmSettlement reports whether signature has reached the configured commitment.
// A transaction that landed but failed on chain yields a provider error.
func (c *Client) ConfirmSettlement(ctx context.Context, signature solana.Signature) (bool, error) {
	var status *solanarpc.SignatureStatusesResult
	err := c.execute(ctx, "getSignatureStatuses", func(ctx context.Context, api rpc.API) error {
		result, err := api.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			return err
		}
		if result != nil && len(result.Value) > 0 {
			status = result.Value[0]
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("GetSignatureStatuses error", zap.String("signature", signature.String()), zap.Error(err))
		return false, types.NetworkError("confirm settlement", err)
	}
	if status == nil {
		return false, nil
	}
	if status.Err != nil {
		return false, types.ProviderError("confirm settlement", fmt.Errorf("transaction failed on chain: %v", status.Err))
	}
	return reachedCommitment(status.ConfirmationStatus, c.commitment), nil
}

func reachedCommitment(got solanarpc.ConfirmationStatusType, want solanarpc.CommitmentType) bool {
	switch got {
	case solanarpc.ConfirmationStatusFinalized:
		return true
	case solanarpc.ConfirmationStatusConfirmed:
		return want != solanarpc.CommitmentFinalized
	case solanarpc.ConfirmationStatusProcessed:
		return want == solanarpc.CommitmentProcessed
	}
	return false
}

// SendTransaction broadcasts a signed transaction with preflight checks on.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := c.execute(ctx, "sendTransaction", func(ctx context.Context, api rpc.API) error {
		var err error
		sig, err = api.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
			PreflightCommitment: c.commitment,
		})
		return err
	})
	if err != nil {
		c.logger.Error("SendTransaction error", zap.Error(err))
		return solana.Signature{}, c.analyzer.Classify("send transaction", err)
	}
	return sig, nil
}

var _ blockchain.Client = (*Client)(nil)
