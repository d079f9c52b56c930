package events

import (
	"context"
	"sync"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// Recorder is a synchronous Publisher that keeps every event in memory.
// Services use it in tests to assert what was published after commit.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (r *Recorder) Publish(_ context.Context, name enums.EventName, payload Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Payload: payload})
}

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named filters recorded events by name.
func (r *Recorder) Named(name enums.EventName) []Event {
	var out []Event
	for _, evt := range r.Events() {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}
