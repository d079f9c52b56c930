package rabbitmq

import (
	"context"

	"github.com/greencredits/greencredits-backend/pkg/events"
)

type publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Forwarder bridges dispatcher events onto the broker, keyed by event name.
type Forwarder struct {
	producer publisher
}

func NewForwarder(producer publisher) *Forwarder {
	return &Forwarder{producer: producer}
}

// Register subscribes the forwarder to every event name.
func (f *Forwarder) Register(d *events.Dispatcher) {
	d.SubscribeAll(f.Handle)
}

// Handle is an events.Handler.
func (f *Forwarder) Handle(ctx context.Context, evt events.Event) error {
	return f.producer.Publish(ctx, evt.Name.String(), evt)
}
