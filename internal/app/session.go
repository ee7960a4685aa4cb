// internal/app/session.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/config"
	"github.com/rovshanmuradov/sol-splitter/internal/csvimport"
	"github.com/rovshanmuradov/sol-splitter/internal/events"
	"github.com/rovshanmuradov/sol-splitter/internal/export"
	"github.com/rovshanmuradov/sol-splitter/internal/payment"
	"github.com/rovshanmuradov/sol-splitter/internal/price"
	"github.com/rovshanmuradov/sol-splitter/internal/records"
	"github.com/rovshanmuradov/sol-splitter/internal/storage"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/postgres"
	"github.com/rovshanmuradov/sol-splitter/internal/wallet"
)

const eventBufferSize = 64

// Options overrides parts of the session, mostly for tests. Zero values mean "build from config".
type Options struct {
	Client     blockchain.Client
	Store      storage.Storage
	Wallet     *wallet.Wallet
	Approver   wallet.Approver
	Registerer prometheus.Registerer
	Records    []records.Option
}

// Session owns every service of one CLI invocation.
type Session struct {
	Config   *config.Config
	Logger   *zap.Logger
	Bus      *events.Bus
	Client   blockchain.Client
	Records  *records.Records
	Wallet   *wallet.Wallet
	Provider *wallet.Provider
	Workflow *payment.Workflow
	Price    *price.Service
	Importer *csvimport.Importer
	Exporter *export.HistoryExporter

	shutdown *ShutdownHandler

	balanceMu   sync.Mutex
	lastBalance *float64
}

// NewSession wires the services described by cfg. A missing keypair file leaves the wallet disconnected.
func NewSession(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Session, error) {
	s := &Session{
		Config:   cfg,
		Logger:   logger,
		shutdown: NewShutdownHandler(logger.Named("shutdown"), 0),
	}

	s.Bus = events.NewBus(logger, eventBufferSize)
	s.shutdown.AddFunc("event_bus", func() error {
		return s.Bus.Shutdown(context.Background())
	})

	store := opts.Store
	switch {
	case store != nil:
	case cfg.DatabaseDSN != "":
		pg, err := postgres.Open(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, s.abort(fmt.Errorf("open database: %w", err))
		}
		s.shutdown.Add("postgres", pg)
		store = pg
	default:
		fileStore, err := storage.NewFileStorage(cfg.DataDir, logger)
		if err != nil {
			return nil, s.abort(fmt.Errorf("open data dir: %w", err))
		}
		store = fileStore
	}

	recs, err := records.Open(ctx, store, logger, opts.Records...)
	if err != nil {
		return nil, s.abort(fmt.Errorf("load records: %w", err))
	}
	s.Records = recs

	s.Client = opts.Client
	if s.Client == nil {
		client, err := solbc.NewClient(cfg.RPCList, solbc.ClientConfig{
			RateLimit: cfg.RPCRateLimit,
			Burst:     cfg.RPCBurst,
		}, logger)
		if err != nil {
			return nil, s.abort(err)
		}
		s.Client = client
	}

	s.Wallet = opts.Wallet
	if s.Wallet == nil {
		w, err := wallet.LoadKeypair(cfg.KeypairPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("Keypair not found, wallet disconnected", zap.String("path", cfg.KeypairPath))
		case err != nil:
			return nil, s.abort(fmt.Errorf("load keypair: %w", err))
		default:
			s.Wallet = w
		}
	}
	s.Provider = wallet.NewProvider(s.Wallet, s.Client, opts.Approver, logger)

	s.Workflow = payment.NewWorkflow(payment.Dependencies{
		Wallet:  s.Provider,
		Builder: transaction.NewBuilder(s.Client, logger),
		Monitor: transaction.NewMonitor(s.Client, logger, transaction.Config{
			Mode:         transaction.ConfirmationMode(cfg.Confirmation.Mode),
			Timeout:      cfg.ConfirmationTimeout(),
			PollInterval: cfg.ConfirmationPollInterval(),
			Delay:        cfg.ConfirmationDelay(),
		}),
		History:   recs.History,
		Publisher: s.Bus,
		Metrics:   transaction.NewMetrics(opts.Registerer),
	}, payment.Config{
		RecordFailed: cfg.RecordFailed,
		Cluster:      cfg.ExplorerCluster(),
	}, logger)

	s.Price = price.NewService(price.Config{
		URL:     cfg.PriceURL,
		Refresh: cfg.PriceRefresh(),
		Retries: cfg.PriceRetries,
	}, s.Bus, logger)
	s.Importer = csvimport.NewImporter(logger)
	s.Exporter = export.NewHistoryExporter(logger)

	logger.Debug("Session ready",
		zap.Bool("wallet_connected", s.Wallet != nil),
		zap.String("cluster", cfg.Cluster),
		zap.Int("rpc_nodes", len(cfg.RPCList)))
	return s, nil
}

func (s *Session) abort(err error) error {
	_ = s.shutdown.Shutdown(context.Background())
	return err
}

// Address returns the connected wallet address.
func (s *Session) Address() (solana.PublicKey, bool) {
	return s.Provider.Address()
}

// Balance reads the connected wallet balance in SOL and publishes BalanceChanged when it moved.
func (s *Session) Balance(ctx context.Context) (float64, error) {
	owner, ok := s.Address()
	if !ok {
		return 0, wallet.ErrNotConnected
	}
	balance, err := s.Client.GetBalance(ctx, owner)
	if err != nil {
		return 0, err
	}

	s.balanceMu.Lock()
	var old float64
	changed := s.lastBalance == nil || *s.lastBalance != balance
	if s.lastBalance != nil {
		old = *s.lastBalance
	}
	s.lastBalance = &balance
	s.balanceMu.Unlock()

	if changed {
		if err := s.Bus.Publish(&events.BalanceChangedEvent{
			BaseEvent:     events.NewBase(events.BalanceChanged),
			WalletAddress: owner.String(),
			OldBalance:    old,
			NewBalance:    balance,
		}); err != nil {
			s.Logger.Debug("Balance event dropped", zap.Error(err))
		}
	}
	return balance, nil
}

// Close releases every service.
func (s *Session) Close(ctx context.Context) error {
	return s.shutdown.Shutdown(ctx)
}
