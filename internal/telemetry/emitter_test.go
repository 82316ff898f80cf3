package telemetry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestEmitterFirstCallEmits(t *testing.T) {
	e := NewEmitter(testFormat(), 2*time.Second)
	msg, ok := e.MaybeEmit(t0, occupiedSnapshot())
	if !ok {
		t.Fatal("expected first call to emit")
	}
	if len(msg.Payload) == 0 {
		t.Error("expected non-empty payload")
	}
	if last, ok := e.LastEmitted(); !ok || !last.Equal(t0) {
		t.Errorf("LastEmitted: got (%v, %v)", last, ok)
	}
}

func TestEmitterSameInstantEmitsOnce(t *testing.T) {
	e := NewEmitter(testFormat(), 2*time.Second)
	_, first := e.MaybeEmit(t0, occupiedSnapshot())
	_, second := e.MaybeEmit(t0, occupiedSnapshot())
	if !first || second {
		t.Errorf("expected (true, false), got (%v, %v)", first, second)
	}
}

func TestEmitterRateLimit(t *testing.T) {
	interval := 2 * time.Second
	e := NewEmitter(testFormat(), interval)

	// 100ms cycles for 10s: expect emissions at 0, 2, 4, 6, 8, 10s.
	count := 0
	for i := 0; i <= 100; i++ {
		if _, ok := e.MaybeEmit(t0.Add(time.Duration(i)*100*time.Millisecond), occupiedSnapshot()); ok {
			count++
		}
	}
	if count != 6 {
		t.Errorf("expected 6 emissions, got %d", count)
	}
}

func TestEmitterNotBeforeInterval(t *testing.T) {
	e := NewEmitter(testFormat(), 2*time.Second)
	e.MaybeEmit(t0, occupiedSnapshot())
	if _, ok := e.MaybeEmit(t0.Add(1999*time.Millisecond), occupiedSnapshot()); ok {
		t.Error("emitted before interval elapsed")
	}
	if _, ok := e.MaybeEmit(t0.Add(2*time.Second), occupiedSnapshot()); !ok {
		t.Error("expected emission at exactly the interval")
	}
}

func TestEmitterUsesLatestSnapshot(t *testing.T) {
	e := NewEmitter(testFormat(), time.Second)
	e.MaybeEmit(t0, occupiedSnapshot())

	snap := occupiedSnapshot()
	snap.Occupancy.Occupied = false
	msg, ok := e.MaybeEmit(t0.Add(time.Second), snap)
	if !ok {
		t.Fatal("expected emission")
	}
	if !strings.Contains(string(msg.Payload), `"status":"Free"`) {
		t.Errorf("expected Free status, got %s", msg.Payload)
	}
}

func TestFakeChannel(t *testing.T) {
	f := NewFakeChannel()
	if !f.IsConnected() {
		t.Error("expected connected by default")
	}
	if err := f.Publish([]byte("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.PublishError = errors.New("boom")
	if err := f.Publish([]byte("b")); err == nil {
		t.Error("expected error")
	}
	if len(f.Payloads) != 1 || f.Attempts != 2 {
		t.Errorf("payloads=%d attempts=%d", len(f.Payloads), f.Attempts)
	}
	f.Reset()
	if len(f.Payloads) != 0 || f.Attempts != 0 || f.PublishError != nil {
		t.Error("reset did not clear state")
	}
}

func TestBreakerChannelPassThrough(t *testing.T) {
	inner := NewFakeChannel()
	b := NewBreakerChannel(inner, DefaultBreakerSettings("test"))

	if err := b.Publish([]byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.Payloads) != 1 {
		t.Errorf("expected 1 payload, got %d", len(inner.Payloads))
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", b.State())
	}
}

func TestBreakerChannelOpensOnFailures(t *testing.T) {
	inner := NewFakeChannel()
	inner.PublishError = errors.New("broker down")
	b := NewBreakerChannel(inner, BreakerSettings{Name: "test", ConsecutiveFailures: 2, OpenFor: time.Minute})

	b.Publish([]byte("1"))
	b.Publish([]byte("2"))
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	err := b.Publish([]byte("3"))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if inner.Attempts != 2 {
		t.Errorf("open breaker should not reach the channel: attempts=%d", inner.Attempts)
	}
}

func TestBreakerChannelDisconnected(t *testing.T) {
	inner := NewFakeChannel()
	inner.Connected = false
	b := NewBreakerChannel(inner, DefaultBreakerSettings("test"))

	err := b.Publish([]byte("x"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if inner.Attempts != 0 {
		t.Errorf("disconnected channel should not be called: attempts=%d", inner.Attempts)
	}
	if b.IsConnected() {
		t.Error("expected IsConnected=false")
	}
}
