// Package display renders the room status for a local two-line,
// 16-column character display. Sinks receive a status every cycle and
// never feed anything back into the controller.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/sweeney/room-controller/internal/logic"
)

// Columns is the width of one display line.
const Columns = 16

// Status is what the display shows.
type Status struct {
	Occupied bool
	TempC    int  // truncated toward zero
	TempOK   bool // false when the climate sensor gave no reading
	LightPct int
}

// FromSnapshot extracts the displayed fields from a snapshot.
func FromSnapshot(snap logic.Snapshot) Status {
	s := Status{
		Occupied: snap.Occupancy.Occupied,
		LightPct: snap.Light.Percent,
	}
	if snap.Climate != nil {
		s.TempC = int(snap.Climate.TemperatureC)
		s.TempOK = true
	}
	return s
}

// Lines renders the two display lines, each padded to Columns.
func (s Status) Lines() [2]string {
	state := "FREE (ECO)"
	if s.Occupied {
		state = "OCCUPIED"
	}
	temp := "T:--C"
	if s.TempOK {
		temp = fmt.Sprintf("T:%dC", s.TempC)
	}
	return [2]string{
		fit(state, temp),
		pad(fmt.Sprintf("Ambient:%d%%", s.LightPct)),
	}
}

// fit places left and right on one line, right-aligned, cutting left if
// the line is too short for both.
func fit(left, right string) string {
	room := Columns - len(right)
	if room < 0 {
		return right[:Columns]
	}
	if len(left) > room-1 && room > 0 {
		left = left[:room-1]
	}
	return left + strings.Repeat(" ", room-len(left)) + right
}

func pad(s string) string {
	if len(s) >= Columns {
		return s[:Columns]
	}
	return s + strings.Repeat(" ", Columns-len(s))
}

// Sink consumes the status once per cycle.
type Sink interface {
	Show(s Status)
}

// Writer renders the display lines to an io.Writer, only when they change.
type Writer struct {
	w     io.Writer
	last  [2]string
	shown bool
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Show writes the two lines if they differ from the last ones written.
// Write errors are ignored; the display is best effort.
func (d *Writer) Show(s Status) {
	lines := s.Lines()
	if d.shown && lines == d.last {
		return
	}
	d.last = lines
	d.shown = true
	fmt.Fprintf(d.w, "|%s|\n|%s|\n", lines[0], lines[1])
}

// Recorder keeps every status it is shown, for tests.
type Recorder struct {
	Shown []Status
}

// Show records s.
func (r *Recorder) Show(s Status) {
	r.Shown = append(r.Shown, s)
}

// Last returns the most recent status, or the zero value.
func (r *Recorder) Last() Status {
	if len(r.Shown) == 0 {
		return Status{}
	}
	return r.Shown[len(r.Shown)-1]
}
