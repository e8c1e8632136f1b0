package mqtt

import (
	"sync"

	"github.com/sweeney/round-timer/internal/workout"
)

// FakePublisher records published events for test assertions.
// It is safe for concurrent use; engine observers may publish from timer
// goroutines.
type FakePublisher struct {
	mu sync.Mutex

	// Transitions contains all workout transitions that were published.
	Transitions []workout.Transition

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	handler func(workout.Intent)
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the workout transition.
func (f *FakePublisher) Publish(tr workout.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Transitions = append(f.Transitions, tr)

	payload, err := FormatPayload(tr)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// SubscribeCommands stores handler for Deliver.
func (f *FakePublisher) SubscribeCommands(handler func(workout.Intent)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return nil
}

// Deliver simulates a message arriving on TopicCommands.
// Returns false if the payload was rejected or nothing is subscribed.
func (f *FakePublisher) Deliver(payload []byte) bool {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		return false
	}
	intent, err := ParseCommand(payload)
	if err != nil {
		return false
	}
	handler(intent)
	return true
}

// Types returns the event types published so far, in order.
func (f *FakePublisher) Types() []workout.TransitionType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]workout.TransitionType, len(f.Transitions))
	for i, tr := range f.Transitions {
		out[i] = tr.Type
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transitions = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
