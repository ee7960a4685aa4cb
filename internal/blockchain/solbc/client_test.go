package solbc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/rpc"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// MockAPI is a testify mock of the RPC surface.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	args := m.Called(ctx, commitment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*solanarpc.GetLatestBlockhashResult), args.Error(1)
}

func (m *MockAPI) GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error) {
	args := m.Called(ctx, account, commitment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*solanarpc.GetBalanceResult), args.Error(1)
}

func (m *MockAPI) GetSignatureStatuses(ctx context.Context, search bool, signatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, search, signatures)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*solanarpc.GetSignatureStatusesResult), args.Error(1)
}

func (m *MockAPI) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func newTestClient(apis ...rpc.API) *Client {
	nodes := make([]*rpc.NodeClient, len(apis))
	for i, api := range apis {
		nodes[i] = rpc.NewNode("http://node"+string(rune('a'+i)), api)
	}
	return NewClientWithNodes(nodes, ClientConfig{}, zap.NewNop())
}

func TestGetRecentBlockhash(t *testing.T) {
	api := new(MockAPI)
	hash := solana.Hash{7}
	api.On("GetLatestBlockhash", mock.Anything, solanarpc.CommitmentFinalized).
		Return(&solanarpc.GetLatestBlockhashResult{Value: &solanarpc.LatestBlockhashResult{Blockhash: hash}}, nil).Once()

	client := newTestClient(api)
	got, err := client.GetRecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)
	api.AssertExpectations(t)
}

func TestGetRecentBlockhashFailureIsNetworkUnavailable(t *testing.T) {
	api := new(MockAPI)
	api.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	client := newTestClient(api)
	_, err := client.GetRecentBlockhash(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNetworkUnavailable)
	assert.Equal(t, types.KindNetworkUnavailable, types.KindOf(err))
}

func TestFailedNodeIsSkippedOnNextCall(t *testing.T) {
	bad, good := new(MockAPI), new(MockAPI)
	bad.On("GetBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("502")).Once()
	good.On("GetBalance", mock.Anything, mock.Anything, mock.Anything).
		Return(&solanarpc.GetBalanceResult{Value: 2_500_000_000}, nil).Once()

	client := newTestClient(bad, good)
	owner := solana.NewWallet().PublicKey()

	_, err := client.GetBalance(context.Background(), owner)
	require.Error(t, err, "the failing call is not repeated")

	balance, err := client.GetBalance(context.Background(), owner)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, balance, 1e-12)

	bad.AssertExpectations(t)
	good.AssertExpectations(t)
}

func TestConfirmSettlement(t *testing.T) {
	sig := solana.Signature{1}
	tests := []struct {
		name     string
		result   *solanarpc.GetSignatureStatusesResult
		want     bool
		wantKind *types.ErrorKind
	}{
		{
			name:   "unknown signature",
			result: &solanarpc.GetSignatureStatusesResult{Value: []*solanarpc.SignatureStatusesResult{nil}},
		},
		{
			name: "processed only",
			result: &solanarpc.GetSignatureStatusesResult{Value: []*solanarpc.SignatureStatusesResult{
				{ConfirmationStatus: solanarpc.ConfirmationStatusProcessed},
			}},
		},
		{
			name: "confirmed",
			result: &solanarpc.GetSignatureStatusesResult{Value: []*solanarpc.SignatureStatusesResult{
				{ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed},
			}},
			want: true,
		},
		{
			name: "failed on chain",
			result: &solanarpc.GetSignatureStatusesResult{Value: []*solanarpc.SignatureStatusesResult{
				{ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed, Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			}},
			wantKind: func() *types.ErrorKind { k := types.KindProvider; return &k }(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			api.On("GetSignatureStatuses", mock.Anything, false, []solana.Signature{sig}).Return(tt.result, nil).Once()

			got, err := newTestClient(api).ConfirmSettlement(context.Background(), sig)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.Equal(t, *tt.wantKind, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendTransactionClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind types.ErrorKind
	}{
		{"rpc rejection", &jsonrpc.RPCError{Code: -32002, Message: "Transaction simulation failed: insufficient funds"}, types.KindProvider},
		{"transport timeout", timeoutErr{}, types.KindNetworkUnavailable},
		{"unknown", errors.New("boom"), types.KindProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			api.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{}, tt.err).Once()

			_, err := newTestClient(api).SendTransaction(context.Background(), &solana.Transaction{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, types.KindOf(err))
		})
	}
}

func TestCancelledContextIsNotNetworkFailure(t *testing.T) {
	api := new(MockAPI)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(api).SendTransaction(ctx, &solana.Transaction{})
	require.Error(t, err)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
	api.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
}
