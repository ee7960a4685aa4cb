package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := NewWallet(base58.Encode(solana.NewWallet().PrivateKey))
	require.NoError(t, err)
	return w
}

func testEnvelope(sender solana.PublicKey) *transaction.Envelope {
	return &transaction.Envelope{
		Sender:   sender,
		FeePayer: sender,
		Total:    1000,
		Transfers: []types.Transfer{
			{Address: solana.NewWallet().PublicKey().String(), Amount: 600},
			{Address: solana.NewWallet().PublicKey().String(), Amount: 400},
		},
		RecentBlockhash: solana.Hash{4, 2},
	}
}

func TestNewWallet(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w, err := NewWallet(base58.Encode(key))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.Equal(t, key.PublicKey().String(), w.String())

	_, err = NewWallet("0OIl")
	assert.Error(t, err)
	_, err = NewWallet(base58.Encode([]byte{1, 2, 3}))
	assert.ErrorContains(t, err, "expected 64 bytes")
}

func TestLoadKeypair(t *testing.T) {
	dir := t.TempDir()
	key := solana.NewWallet().PrivateKey

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(jsonPath, raw, 0o600))

	w, err := LoadKeypair(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)

	b58Path := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(b58Path, []byte(base58.Encode(key)+"\n"), 0o600))
	w, err = LoadKeypair(b58Path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)

	_, err = LoadKeypair(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSignAndSendApproved(t *testing.T) {
	w := testWallet(t)
	sender := new(MockSender)
	want := solana.Signature{7}
	sender.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
		return len(tx.Signatures) == 1 && len(tx.Message.Instructions) == 2
	})).Return(want, nil).Once()

	p := NewProvider(w, sender, AutoApprove, zap.NewNop())
	addr, ok := p.Address()
	require.True(t, ok)
	assert.Equal(t, w.PublicKey, addr)

	sig, err := p.SignAndSend(context.Background(), testEnvelope(w.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, want, sig)
	sender.AssertExpectations(t)
}

func TestSignAndSendDeclined(t *testing.T) {
	w := testWallet(t)
	sender := new(MockSender)
	decline := ApproverFunc(func(context.Context, *transaction.Envelope) (bool, error) { return false, nil })

	_, err := NewProvider(w, sender, decline, zap.NewNop()).SignAndSend(context.Background(), testEnvelope(w.PublicKey))
	require.ErrorIs(t, err, types.ErrUserRejected)
	assert.Equal(t, types.KindUserRejected, types.KindOf(err))
	sender.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestSignAndSendFailures(t *testing.T) {
	w := testWallet(t)

	t.Run("disconnected", func(t *testing.T) {
		p := NewProvider(nil, new(MockSender), nil, zap.NewNop())
		_, ok := p.Address()
		assert.False(t, ok)
		_, err := p.SignAndSend(context.Background(), testEnvelope(w.PublicKey))
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("foreign sender", func(t *testing.T) {
		p := NewProvider(w, new(MockSender), nil, zap.NewNop())
		_, err := p.SignAndSend(context.Background(), testEnvelope(solana.NewWallet().PublicKey()))
		assert.Equal(t, types.KindProvider, types.KindOf(err))
	})

	t.Run("approver error", func(t *testing.T) {
		broken := ApproverFunc(func(context.Context, *transaction.Envelope) (bool, error) {
			return false, errors.New("tty closed")
		})
		_, err := NewProvider(w, new(MockSender), broken, zap.NewNop()).
			SignAndSend(context.Background(), testEnvelope(w.PublicKey))
		assert.ErrorIs(t, err, types.ErrProvider)
	})

	t.Run("send error passes through", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendTransaction", mock.Anything, mock.Anything).
			Return(solana.Signature{}, types.NetworkError("send transaction", errors.New("timeout"))).Once()
		_, err := NewProvider(w, sender, nil, zap.NewNop()).
			SignAndSend(context.Background(), testEnvelope(w.PublicKey))
		assert.Equal(t, types.KindNetworkUnavailable, types.KindOf(err))
	})
}
