package telemetry

import (
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

// Emitter produces at most one telemetry message per publish interval.
// Its timer is independent of the occupancy idle timeout but must be fed
// the same clock.
type Emitter struct {
	format  Format
	cadence *logic.Cadence
}

// NewEmitter creates an emitter. The first call to MaybeEmit always emits.
func NewEmitter(format Format, interval time.Duration) *Emitter {
	return &Emitter{
		format:  format,
		cadence: logic.NewCadence(interval),
	}
}

// MaybeEmit returns a serialized message and true if the publish interval
// has elapsed since the last emission, recording now as the new emission
// time. Otherwise it returns false and this cycle produces no message.
func (e *Emitter) MaybeEmit(now time.Time, snap logic.Snapshot) (Message, bool) {
	if !e.cadence.Due(now) {
		return Message{}, false
	}
	return e.format.FormatPayload(snap), true
}

// LastEmitted returns the time of the last emission, if any.
func (e *Emitter) LastEmitted() (time.Time, bool) {
	return e.cadence.Last()
}

// Interval returns the publish interval.
func (e *Emitter) Interval() time.Duration {
	return e.cadence.Interval()
}
