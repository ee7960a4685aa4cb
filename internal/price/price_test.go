package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/sol-splitter/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) Config {
	return Config{URL: url, Refresh: time.Hour, Retries: 3, RetryInitial: time.Millisecond}
}

func TestRefreshPublishesOnChange(t *testing.T) {
	var price atomic.Value
	price.Store("142.5")
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"solana":{"usd":%s}}`, price.Load())
	})

	pub := &recordingPublisher{}
	s := NewService(testConfig(srv.URL), pub, zaptest.NewLogger(t))

	p, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142.5, p)
	require.Equal(t, 1, pub.count())
	ev := pub.events[0].(events.PriceUpdatedEvent)
	assert.Equal(t, 142.5, ev.CurrentPrice)
	assert.Zero(t, ev.PreviousPrice)

	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.count(), "unchanged price is not republished")

	price.Store("150")
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pub.count())

	usd, ok := s.ToUSD(2)
	require.True(t, ok)
	assert.Equal(t, 300.0, usd)
}

func TestRefreshRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"solana":{"usd":99.1}}`)
	})

	s := NewService(testConfig(srv.URL), nil, zaptest.NewLogger(t))
	p, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99.1, p)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRefreshDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	s := NewService(testConfig(srv.URL), nil, zaptest.NewLogger(t))
	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, _, ok := s.Cached()
	assert.False(t, ok)
}

func TestRefreshMissingPrice(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bitcoin":{"usd":1}}`)
	})
	_, err := NewService(testConfig(srv.URL), nil, zaptest.NewLogger(t)).Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrNoPrice))
}

func TestCurrentUsesCacheWhileFresh(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"solana":{"usd":10}}`)
	})

	s := NewService(testConfig(srv.URL), nil, zaptest.NewLogger(t))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := s.Current(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Hour)
	_, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"solana":{"usd":10}}`)
	})
	s := NewService(testConfig(srv.URL), nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := s.Cached()
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
