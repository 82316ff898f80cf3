// Package status provides a thread-safe status tracker for the room controller.
// It is read by the HTTP handlers and by the lifecycle event publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains controller configuration for display.
type Config struct {
	Room              string
	IdleTimeoutMs     int64
	PublishIntervalMs int64
	PollMs            int64
	HeartbeatMs       int64
	Broker            string
	HTTPAddr          string
}

// Counts are running totals since startup.
type Counts struct {
	Cycles      int
	Emitted     int
	Degraded    int
	Occupied    int // transitions to Occupied
	Freed       int // transitions to Free
	SensorFails int
}

// Snapshot is a point-in-time view of controller state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Room          logic.Snapshot
	Ready         bool // at least one cycle has run
	LastEmit      time.Time
	Counts        Counts
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot id and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			BootID:    bootID,
			Config:    cfg,
		},
	}
}

// Update records the latest cycle snapshot and counts occupancy
// transitions against the previous one.
func (t *Tracker) Update(room logic.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snap.Room.Occupancy.Occupied
	if room.Climate != nil {
		c := *room.Climate
		room.Climate = &c
	}
	if t.snap.Ready && prev != room.Occupancy.Occupied {
		if room.Occupancy.Occupied {
			t.snap.Counts.Occupied++
		} else {
			t.snap.Counts.Freed++
		}
	}
	t.snap.Room = room
	t.snap.Ready = true
	t.snap.Counts.Cycles++
}

// RecordEmit notes a telemetry emission.
func (t *Tracker) RecordEmit(at time.Time, degraded bool) {
	t.mu.Lock()
	t.snap.LastEmit = at
	t.snap.Counts.Emitted++
	if degraded {
		t.snap.Counts.Degraded++
	}
	t.mu.Unlock()
}

// RecordSensorFailure increments the sensor failure count.
func (t *Tracker) RecordSensorFailure() {
	t.mu.Lock()
	t.snap.Counts.SensorFails++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
