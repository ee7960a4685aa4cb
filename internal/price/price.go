// internal/price/price.go

package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/events"
)

const (
	DefaultURL      = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	DefaultRefresh  = 60 * time.Second
	DefaultRetries  = 3
	currency        = "usd"
	maxResponseSize = 1 << 16
)

var ErrNoPrice = errors.New("price not available")

// simplePriceResponse is the body of /simple/price?ids=solana&vs_currencies=usd.
type simplePriceResponse struct {
	Solana struct {
		USD *float64 `json:"usd"`
	} `json:"solana"`
}

// Config tunes the price service.
type Config struct {
	URL          string
	Refresh      time.Duration
	Retries      int
	RetryInitial time.Duration
}

// Service fetches and caches the SOL/USD price.
type Service struct {
	client    *http.Client
	logger    *zap.Logger
	publisher events.Publisher
	config    Config

	mu        sync.RWMutex
	price     float64
	fetchedAt time.Time
	now       func() time.Time
}

// NewService creates a price service. publisher may be nil.
func NewService(cfg Config, publisher events.Publisher, logger *zap.Logger) *Service {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultRefresh
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 500 * time.Millisecond
	}
	return &Service{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger.Named("price"),
		publisher: publisher,
		config:    cfg,
		now:       time.Now,
	}
}

// Cached returns the last fetched price without touching the network.
func (s *Service) Cached() (float64, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price, s.fetchedAt, !s.fetchedAt.IsZero()
}

// Current returns the cached price while it is fresh, otherwise fetches a new one.
func (s *Service) Current(ctx context.Context) (float64, error) {
	if p, at, ok := s.Cached(); ok && s.now().Sub(at) < s.config.Refresh {
		return p, nil
	}
	return s.Refresh(ctx)
}

// ToUSD converts an amount of SOL with the cached price.
func (s *Service) ToUSD(sol float64) (float64, bool) {
	p, _, ok := s.Cached()
	if !ok {
		return 0, false
	}
	return sol * p, true
}

// Refresh fetches the price with retries, stores it and publishes PriceUpdated when it changed.
func (s *Service) Refresh(ctx context.Context) (float64, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.RetryInitial
	policy.MaxInterval = s.config.RetryInitial * 10

	notify := func(err error, d time.Duration) {
		s.logger.Debug("Price fetch failed, retrying", zap.Error(err), zap.Duration("backoff", d))
	}

	p, err := backoff.Retry(ctx, func() (float64, error) {
		return s.fetch(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.config.Retries)),
		backoff.WithNotify(notify))
	if err != nil {
		s.logger.Warn("Price fetch failed", zap.Error(err))
		return 0, err
	}

	s.mu.Lock()
	previous := s.price
	s.price = p
	s.fetchedAt = s.now()
	s.mu.Unlock()

	if p != previous && s.publisher != nil {
		event := events.PriceUpdatedEvent{
			BaseEvent:     events.NewBase(events.PriceUpdated),
			Currency:      currency,
			CurrentPrice:  p,
			PreviousPrice: previous,
		}
		if err := s.publisher.Publish(event); err != nil {
			s.logger.Debug("Failed to publish price update", zap.Error(err))
		}
	}
	return p, nil
}

func (s *Service) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return 0, fmt.Errorf("price API returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return 0, backoff.Permanent(fmt.Errorf("price API returned status %d", resp.StatusCode))
	}

	var data simplePriceResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if data.Solana.USD == nil || *data.Solana.USD <= 0 {
		return 0, backoff.Permanent(ErrNoPrice)
	}
	return *data.Solana.USD, nil
}

// Run refreshes the price immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Refresh)
	defer ticker.Stop()

	for {
		if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug("Keeping previous price", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
