package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/sol-splitter/internal/config"
	"github.com/rovshanmuradov/sol-splitter/internal/events"
	"github.com/rovshanmuradov/sol-splitter/internal/payment"
	"github.com/rovshanmuradov/sol-splitter/internal/storage"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/wallet"
)

type fakeClient struct {
	mu      sync.Mutex
	balance float64
}

func (f *fakeClient) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

func (f *fakeClient) ConfirmSettlement(context.Context, solana.Signature) (bool, error) {
	return true, nil
}

func (f *fakeClient) GetBalance(context.Context, solana.PublicKey) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeClient) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{4, 2}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RPCList:      []string{"https://api.devnet.solana.com"},
		Cluster:      config.DefaultCluster,
		KeypairPath:  filepath.Join(t.TempDir(), "missing.json"),
		DataDir:      t.TempDir(),
		Confirmation: config.ConfirmationConfig{Mode: "poll", TimeoutMs: 1000, PollIntervalMs: 10, DelayMs: 10},
	}
}

func testWallet() *wallet.Wallet {
	key := solana.NewWallet().PrivateKey
	return &wallet.Wallet{PrivateKey: key, PublicKey: key.PublicKey()}
}

func TestShutdownReverseOrderAndErrors(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), time.Second)
	var order []string
	sh.AddFunc("first", func() error { order = append(order, "first"); return nil })
	sh.AddFunc("second", func() error { order = append(order, "second"); return errors.New("boom") })
	sh.AddFunc("third", func() error { order = append(order, "third"); return nil })

	err := sh.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second: boom")
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// services are closed once
	require.NoError(t, sh.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownTimeout(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), 20*time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	sh.AddFunc("stuck", func() error { <-block; return nil })

	err := sh.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stuck: shutdown timeout")
}

func TestNewSessionWithoutKeypair(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(t), zaptest.NewLogger(t), Options{
		Client: &fakeClient{},
		Store:  storage.NewMemoryStorage(),
	})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, connected := s.Address()
	assert.False(t, connected)
	_, err = s.Balance(context.Background())
	assert.ErrorIs(t, err, wallet.ErrNotConnected)

	_, err = s.Workflow.Submit(context.Background(), payment.Request{Amount: 1, Recipients: []types.Recipient{
		{Address: solana.NewWallet().PublicKey().String(), Percentage: 50},
		{Address: solana.NewWallet().PublicKey().String(), Percentage: 50},
	}})
	require.Error(t, err)
	assert.Equal(t, "Please connect your wallet first", err.Error())
}

func TestSessionPaysAndRecords(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(t), zaptest.NewLogger(t), Options{
		Client: &fakeClient{balance: 5},
		Store:  storage.NewMemoryStorage(),
		Wallet: testWallet(),
	})
	require.NoError(t, err)
	defer s.Close(context.Background())

	result, err := s.Workflow.Submit(context.Background(), payment.Request{Amount: 1, Recipients: []types.Recipient{
		{Address: solana.NewWallet().PublicKey().String(), Percentage: 70},
		{Address: solana.NewWallet().PublicKey().String(), Percentage: 30},
	}})
	require.NoError(t, err)
	assert.Equal(t, (solana.Signature{4, 2}).String(), result.Signature)
	assert.Equal(t, 1, s.Records.History.Len())
}

func TestBalancePublishesOnChange(t *testing.T) {
	client := &fakeClient{balance: 2}
	s, err := NewSession(context.Background(), testConfig(t), zaptest.NewLogger(t), Options{
		Client: client,
		Store:  storage.NewMemoryStorage(),
		Wallet: testWallet(),
	})
	require.NoError(t, err)
	defer s.Close(context.Background())

	received := make(chan *events.BalanceChangedEvent, 4)
	s.Bus.SubscribeFunc(events.BalanceChanged, func(_ context.Context, e events.Event) error {
		received <- e.(*events.BalanceChangedEvent)
		return nil
	})

	for _, want := range []float64{2, 2, 3} {
		client.mu.Lock()
		client.balance = want
		client.mu.Unlock()
		got, err := s.Balance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	first := <-received
	assert.Equal(t, 0.0, first.OldBalance)
	assert.Equal(t, 2.0, first.NewBalance)
	second := <-received
	assert.Equal(t, 2.0, second.OldBalance)
	assert.Equal(t, 3.0, second.NewBalance)
	select {
	case extra := <-received:
		t.Fatalf("unexpected event %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}
