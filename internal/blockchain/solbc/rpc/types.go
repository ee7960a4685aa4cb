// internal/blockchain/solbc/rpc/types.go
package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second
	// Cooldown is how long a failed node is skipped before it is tried again.
	Cooldown = 30 * time.Second
)

// API is the part of the solana-go RPC client the splitter calls.
type API interface {
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
}

// NodeClient is one RPC endpoint with its health state.
type NodeClient struct {
	API      API
	URL      string
	mutex    sync.RWMutex
	failedAt time.Time
	metrics  *metrics
}

// metrics holds per-node request counters.
type metrics struct {
	successCount uint64
	errorCount   uint64
	latency      time.Duration
	mutex        sync.RWMutex
}

// Pool spreads calls over several endpoints, moving on from a node after it fails.
type Pool struct {
	clients []*NodeClient
	logger  *zap.Logger
	curr    int
	mutex   sync.Mutex
	now     func() time.Time
}
