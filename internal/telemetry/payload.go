// Package telemetry serializes room status snapshots and decides when to
// hand them to a publish channel.
package telemetry

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sweeney/room-controller/internal/logic"
)

// DefaultMaxPayloadBytes is the largest payload the emitter produces.
const DefaultMaxPayloadBytes = 256

// Error flags carried in the "error" field of a degraded payload.
const (
	ErrFlagTruncated = "truncated"
	ErrFlagOversize  = "oversize"
	ErrFlagEncode    = "encode"
)

// Decimal1 is a float encoded in JSON with exactly one decimal place.
type Decimal1 float64

// MarshalJSON implements json.Marshaler.
func (d Decimal1) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', 1, 64), nil
}

// Payload is the outbound telemetry record. Field order is stable.
// Temp and Hum are null when the climate sensor gave no reading.
type Payload struct {
	Room                 string    `json:"room"`
	Status               string    `json:"status"`
	Temp                 *Decimal1 `json:"temp"`
	Hum                  *Decimal1 `json:"hum"`
	AmbientLightPct      int       `json:"ambient_light_pct"`
	ArtificialLightLevel int       `json:"artificial_light_level"`
	ThermalAlert         int       `json:"thermal_alert"`
	Error                string    `json:"error,omitempty"`
}

// errorPayload is the minimal record emitted when nothing else fits.
type errorPayload struct {
	Room  string `json:"room"`
	Error string `json:"error"`
}

// Message is a serialized telemetry record ready for a publish channel.
type Message struct {
	Payload []byte
	// Degraded is true when the payload was truncated or replaced by an
	// error record.
	Degraded bool
}

// Format controls payload construction.
type Format struct {
	Room            string
	Levels          logic.LevelValues
	MaxPayloadBytes int // <= 0 means DefaultMaxPayloadBytes
}

// BuildPayload maps a snapshot to the outbound record.
func (f Format) BuildPayload(snap logic.Snapshot) Payload {
	p := Payload{
		Room:                 f.Room,
		Status:               string(snap.Occupancy.Status()),
		AmbientLightPct:      snap.Light.Percent,
		ArtificialLightLevel: f.Levels.Value(snap.Targets.Light),
	}
	if snap.Climate != nil {
		t := Decimal1(snap.Climate.TemperatureC)
		h := Decimal1(snap.Climate.HumidityPct)
		p.Temp = &t
		p.Hum = &h
	}
	if snap.Targets.ThermalAlert {
		p.ThermalAlert = 1
	}
	return p
}

// FormatPayload serializes a snapshot. It never fails: a payload that does
// not fit is re-encoded with the room name truncated and an error flag, and
// if even that does not fit a minimal error record is returned.
func (f Format) FormatPayload(snap logic.Snapshot) Message {
	limit := f.MaxPayloadBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadBytes
	}

	p := f.BuildPayload(snap)
	data, err := json.Marshal(p)
	if err == nil && len(data) <= limit {
		return Message{Payload: data}
	}
	if err != nil {
		return errorMessage(ErrFlagEncode)
	}

	// Shrink the room name until it fits.
	overflow := len(data) - limit + len(`,"error":""`) + len(ErrFlagTruncated)
	p.Error = ErrFlagTruncated
	p.Room = truncateUTF8(p.Room, len(p.Room)-overflow)
	data, err = json.Marshal(p)
	if err == nil && len(data) <= limit {
		return Message{Payload: data, Degraded: true}
	}
	return errorMessage(ErrFlagOversize)
}

func errorMessage(flag string) Message {
	data, _ := json.Marshal(errorPayload{Error: flag})
	return Message{Payload: data, Degraded: true}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
// JSON escaping may make the encoded form longer than n.
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
