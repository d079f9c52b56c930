package events

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, timeout time.Duration) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	buf := &syncBuffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	d := NewDispatcher(logg, metrics.NewEventMetrics(prometheus.NewRegistry()), timeout)
	return d, &buf.buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func TestPublishRunsHandlersInOrderOfSubscription(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)

	var mu sync.Mutex
	var seen []string
	d.Subscribe(enums.EventCollectionCompleted, func(ctx context.Context, evt Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "first:"+evt.Payload["email"].(string))
		return nil
	})
	d.Subscribe(enums.EventCollectionCompleted, func(ctx context.Context, evt Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "second")
		return nil
	})
	assert.Equal(t, 2, d.HandlerCount(enums.EventCollectionCompleted))

	d.Publish(context.Background(), enums.EventCollectionCompleted, Payload{"email": "a@b.c"})
	require.NoError(t, d.Close(context.Background()))

	assert.ElementsMatch(t, []string{"first:a@b.c", "second"}, seen)
}

func TestPublishIgnoresCallerCancellation(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)

	var ran atomic.Bool
	d.Subscribe(enums.EventWalletCreditCreated, func(ctx context.Context, evt Event) error {
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() == nil {
			ran.Store(true)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Publish(ctx, enums.EventWalletCreditCreated, Payload{})
	cancel()

	require.NoError(t, d.Close(context.Background()))
	assert.True(t, ran.Load())
}

func TestHandlerFailuresAreIsolated(t *testing.T) {
	d, logs := newTestDispatcher(t, time.Second)

	var healthy atomic.Int32
	d.Subscribe(enums.EventClaimResolved, func(ctx context.Context, evt Event) error {
		panic("kaboom")
	})
	d.Subscribe(enums.EventClaimResolved, func(ctx context.Context, evt Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(enums.EventClaimResolved, func(ctx context.Context, evt Event) error {
		healthy.Add(1)
		return nil
	})

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), enums.EventClaimResolved, Payload{"claim_id": 1})
	})
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, int32(1), healthy.Load())
	assert.Contains(t, logs.String(), "kaboom")
	assert.Contains(t, logs.String(), "smtp down")
}

func TestHandlerTimeoutBoundsContext(t *testing.T) {
	d, _ := newTestDispatcher(t, 20*time.Millisecond)

	var deadline atomic.Bool
	d.Subscribe(enums.EventSubscriptionConfirmed, func(ctx context.Context, evt Event) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	d.Publish(context.Background(), enums.EventSubscriptionConfirmed, Payload{})
	require.NoError(t, d.Close(context.Background()))
	assert.True(t, deadline.Load())
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)
	d.Publish(context.Background(), enums.EventCollectionScheduled, nil)
	require.NoError(t, d.Close(context.Background()))
}

func TestCloseDropsLaterPublishes(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)

	var calls atomic.Int32
	d.SubscribeAll(func(ctx context.Context, evt Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, d.Close(context.Background()))

	d.Publish(context.Background(), enums.EventWalletDebitDonated, Payload{})
	time.Sleep(5 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestCloseHonoursContextDeadline(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)

	release := make(chan struct{})
	d.Subscribe(enums.EventWalletDebitRedeemed, func(ctx context.Context, evt Event) error {
		<-release
		return nil
	})
	d.Publish(context.Background(), enums.EventWalletDebitRedeemed, Payload{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestRecorderFiltersByName(t *testing.T) {
	rec := &Recorder{}
	rec.Publish(context.Background(), enums.EventCollectionCollected, Payload{"collection_id": uint(1)})
	rec.Publish(context.Background(), enums.EventCollectionCompleted, Payload{"collection_id": uint(1)})

	assert.Len(t, rec.Events(), 2)
	require.Len(t, rec.Named(enums.EventCollectionCompleted), 1)
	assert.Equal(t, uint(1), rec.Named(enums.EventCollectionCompleted)[0].Payload["collection_id"])
}
