package mqtt

import (
	"fmt"

	"github.com/sweeney/room-controller/internal/telemetry"
)

// FakePublisher behaves like RealPublisher without a broker: telemetry is
// dropped with telemetry.ErrNotConnected while disconnected, and lifecycle
// events are held in Queued until Reconnect.
type FakePublisher struct {
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte
	Queued         []SystemEvent

	// Injected failures, returned before anything is recorded.
	PublishError       error
	PublishSystemError error

	BootID    string // stamped onto events that carry none
	Connected bool
	Closed    bool
}

// NewFakePublisher returns a connected fake.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

func (f *FakePublisher) Publish(payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if !f.Connected {
		return telemetry.ErrNotConnected
	}
	f.Payloads = append(f.Payloads, append([]byte(nil), payload...))
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	if event.BootID == "" {
		event.BootID = f.BootID
	}
	if !f.Connected {
		f.Queued = append(f.Queued, event)
		return fmt.Errorf("queued %s: %w", event.Event, telemetry.ErrNotConnected)
	}
	return f.record(event)
}

func (f *FakePublisher) record(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Reconnect marks the fake connected and flushes queued events in order,
// as RealPublisher does from its connect handler.
func (f *FakePublisher) Reconnect() error {
	f.Connected = true
	queued := f.Queued
	f.Queued = nil
	for _, e := range queued {
		if err := f.record(e); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	f.Connected = false
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset restores the state NewFakePublisher returns.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Connected: true}
}
