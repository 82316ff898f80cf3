package logic

import "time"

// Cadence gates a periodic action to at most once per interval.
// The first call to Due always fires. An interval <= 0 disables it.
type Cadence struct {
	interval time.Duration
	last     time.Time
	fired    bool
}

// NewCadence creates a Cadence with the given interval.
func NewCadence(interval time.Duration) *Cadence {
	return &Cadence{interval: interval}
}

// NewCadenceFrom creates a Cadence that treats start as the last firing,
// so the first Due returns true only once a full interval has elapsed.
func NewCadenceFrom(interval time.Duration, start time.Time) *Cadence {
	return &Cadence{interval: interval, last: start, fired: true}
}

// Due reports whether the action should run at now, and if so records now
// as the last firing.
func (c *Cadence) Due(now time.Time) bool {
	if c.interval <= 0 {
		return false
	}
	if c.fired && now.Sub(c.last) < c.interval {
		return false
	}
	c.last = now
	c.fired = true
	return true
}

// Last returns the time of the last firing and whether there was one.
func (c *Cadence) Last() (time.Time, bool) {
	return c.last, c.fired
}

// Interval returns the configured interval.
func (c *Cadence) Interval() time.Duration {
	return c.interval
}
