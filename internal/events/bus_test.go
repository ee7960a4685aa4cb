package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stateEvent(to string) PaymentStateChangedEvent {
	return PaymentStateChangedEvent{BaseEvent: NewBase(PaymentStateChanged), AttemptID: "a1", To: to}
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)

	var (
		mu  sync.Mutex
		got []string
	)
	bus.SubscribeFunc(PaymentStateChanged, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(PaymentStateChangedEvent).To)
		return nil
	})

	want := []string{"building", "awaiting_approval", "processing", "confirmed"}
	for _, to := range want {
		require.NoError(t, bus.Publish(stateEvent(to)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got)
}

func TestBusUnsubscribeAndStats(t *testing.T) {
	bus := NewBus(zap.NewNop(), 4)
	defer bus.Shutdown(context.Background())

	calls := 0
	sub := bus.SubscribeFunc(PriceUpdated, func(context.Context, Event) error {
		calls++
		return nil
	})
	assert.Equal(t, 1, bus.Stats().HandlersPerType[PriceUpdated])

	require.NoError(t, bus.PublishSync(context.Background(), PriceUpdatedEvent{BaseEvent: NewBase(PriceUpdated)}))
	assert.Equal(t, 1, calls)

	sub.Unsubscribe()
	assert.Zero(t, bus.Stats().HandlersPerType[PriceUpdated])
	require.NoError(t, bus.PublishSync(context.Background(), PriceUpdatedEvent{BaseEvent: NewBase(PriceUpdated)}))
	assert.Equal(t, 1, calls)
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewBus(zap.NewNop(), 1)
	defer bus.Shutdown(context.Background())

	errA, errB := errors.New("a"), errors.New("b")
	bus.SubscribeFunc(PaymentFailed, func(context.Context, Event) error { return errA })
	bus.SubscribeFunc(PaymentFailed, func(context.Context, Event) error { return errB })

	err := bus.PublishSync(context.Background(), PaymentFailedEvent{BaseEvent: NewBase(PaymentFailed)})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestPublishAfterShutdown(t *testing.T) {
	bus := NewBus(zap.NewNop(), 0)
	require.NoError(t, bus.Shutdown(context.Background()))
	assert.ErrorIs(t, bus.Publish(stateEvent("idle")), ErrBusClosed)
	assert.NoError(t, bus.Shutdown(context.Background()))
}

func TestPublishFullQueue(t *testing.T) {
	bus := NewBus(zap.NewNop(), 1)
	defer bus.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.SubscribeFunc(PaymentStateChanged, func(context.Context, Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	require.NoError(t, bus.Publish(stateEvent("building")))
	<-started
	require.NoError(t, bus.Publish(stateEvent("processing")))
	assert.ErrorIs(t, bus.Publish(stateEvent("confirmed")), ErrBusFull)
	close(release)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zap.NewNop(), 1)
	defer bus.Shutdown(context.Background())

	var order []int
	for i := 1; i <= 3; i++ {
		bus.SubscribeFunc(BalanceChanged, func(context.Context, Event) error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, bus.PublishSync(context.Background(), BalanceChangedEvent{BaseEvent: NewBase(BalanceChanged)}))
	assert.Equal(t, []int{1, 2, 3}, order)
}
