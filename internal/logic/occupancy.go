package logic

import "time"

// Tracker derives room occupancy from motion samples and an idle timeout.
type Tracker struct {
	idleTimeout time.Duration
	state       OccupancyState
}

// NewTracker creates an idle tracker with the given timeout.
func NewTracker(idleTimeout time.Duration) *Tracker {
	return &Tracker{idleTimeout: idleTimeout}
}

// Update applies one motion sample taken at now and returns the new state.
// Motion always re-occupies the room, even if the timeout has just expired.
// The room goes idle at the first update where now - LastMotionAt exceeds
// the idle timeout.
func (t *Tracker) Update(now time.Time, motion bool) OccupancyState {
	switch {
	case motion:
		if now.After(t.state.LastMotionAt) {
			t.state.LastMotionAt = now
		}
		t.state.Occupied = true
	case t.state.Occupied && now.Sub(t.state.LastMotionAt) > t.idleTimeout:
		t.state.Occupied = false
	}
	return t.state
}

// State returns the current state without updating it.
func (t *Tracker) State() OccupancyState {
	return t.state
}

// IdleTimeout returns the configured timeout.
func (t *Tracker) IdleTimeout() time.Duration {
	return t.idleTimeout
}
