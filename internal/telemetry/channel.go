package telemetry

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// ErrNotConnected is returned when a channel is not ready to publish.
var ErrNotConnected = errors.New("telemetry: channel not connected")

// Channel delivers serialized telemetry to a remote collector.
// Retry and reconnection are the channel's own concern.
type Channel interface {
	// Publish sends one payload. A failure loses the payload; the next
	// scheduled emission supersedes it.
	Publish(payload []byte) error
	// IsConnected reports whether Publish is expected to succeed.
	IsConnected() bool
}

// BreakerSettings configures a BreakerChannel.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures that open the breaker.
	ConsecutiveFailures uint32
	// OpenFor is how long the breaker stays open before a trial publish.
	OpenFor time.Duration
}

// DefaultBreakerSettings trips after 3 failures and stays open for 30s.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{Name: name, ConsecutiveFailures: 3, OpenFor: 30 * time.Second}
}

// BreakerChannel wraps a Channel with a circuit breaker so a dead broker
// costs one fast rejection per cycle instead of a publish timeout.
type BreakerChannel struct {
	inner Channel
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerChannel wraps inner.
func NewBreakerChannel(inner Channel, s BreakerSettings) *BreakerChannel {
	fails := s.ConsecutiveFailures
	if fails == 0 {
		fails = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("telemetry: %s breaker %s -> %s", name, from, to)
		},
	})
	return &BreakerChannel{inner: inner, cb: cb}
}

// Publish forwards to the inner channel unless the breaker is open.
// A disconnected channel counts as a failure without attempting delivery.
func (b *BreakerChannel) Publish(payload []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		if !b.inner.IsConnected() {
			return nil, ErrNotConnected
		}
		return nil, b.inner.Publish(payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", b.cb.Name(), err)
	}
	return err
}

// IsConnected reports the inner channel's state.
func (b *BreakerChannel) IsConnected() bool {
	return b.inner.IsConnected()
}

// State returns the breaker state.
func (b *BreakerChannel) State() gobreaker.State {
	return b.cb.State()
}
