// Package events is the in-process, best-effort publish/subscribe bus used to
// fan out notification side effects after a transaction commits.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/metrics"
)

const defaultHandlerTimeout = 10 * time.Second

// Payload carries primitive values only (ids, emails, *_eur floats, RFC3339 ts).
type Payload map[string]any

// Event is the envelope handed to every subscriber.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Name       enums.EventName `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    Payload         `json:"payload"`
}

// Handler reacts to a published event. Returned errors are logged, never retried.
type Handler func(ctx context.Context, evt Event) error

// Publisher is the narrow surface services depend on.
type Publisher interface {
	Publish(ctx context.Context, name enums.EventName, payload Payload)
}

// Dispatcher runs subscribed handlers detached from the publishing request.
type Dispatcher struct {
	logg    *logger.Logger
	metrics *metrics.EventMetrics
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	handlers map[enums.EventName][]Handler
	closed   bool
	inflight sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A non-positive timeout falls back to 10s.
func NewDispatcher(logg *logger.Logger, m *metrics.EventMetrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	return &Dispatcher{
		logg:     logg,
		metrics:  m,
		timeout:  timeout,
		now:      time.Now,
		handlers: make(map[enums.EventName][]Handler),
	}
}

// Subscribe appends handler to the ordered list for name.
func (d *Dispatcher) Subscribe(name enums.EventName, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
}

// SubscribeAll registers handler for every known event name.
func (d *Dispatcher) SubscribeAll(handler Handler) {
	for _, name := range enums.AllEventNames {
		d.Subscribe(name, handler)
	}
}

// HandlerCount reports how many handlers listen on name.
func (d *Dispatcher) HandlerCount(name enums.EventName) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[name])
}

// Publish schedules every handler for name and returns immediately.
func (d *Dispatcher) Publish(ctx context.Context, name enums.EventName, payload Payload) {
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.metrics.IncDropped(name.String())
		d.warn(ctx, name, "event dropped after dispatcher close")
		return
	}
	handlers := append([]Handler(nil), d.handlers[name]...)
	d.inflight.Add(len(handlers))
	d.mu.RUnlock()

	d.metrics.IncPublished(name.String())

	evt := Event{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: d.now().UTC(),
		Payload:    payload,
	}
	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		go d.run(detached, evt, h)
	}
}

// Close stops accepting events and waits for in-flight handlers or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(parent context.Context, evt Event, h Handler) {
	defer d.inflight.Done()

	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			d.fail(ctx, evt, fmt.Errorf("handler panic: %v", r))
		}
		d.metrics.ObserveHandler(evt.Name.String(), outcome, time.Since(start))
	}()

	if err := h(ctx, evt); err != nil {
		outcome = metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		d.fail(ctx, evt, err)
	}
}

func (d *Dispatcher) fail(ctx context.Context, evt Event, err error) {
	if d.logg == nil {
		return
	}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"event":    evt.Name.String(),
		"event_id": evt.ID.String(),
	})
	d.logg.Error(ctx, "event handler failed", err)
}

func (d *Dispatcher) warn(ctx context.Context, name enums.EventName, msg string) {
	if d.logg == nil {
		return
	}
	d.logg.Warn(d.logg.WithField(ctx, "event", name.String()), msg)
}
