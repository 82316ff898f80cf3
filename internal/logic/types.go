// Package logic contains pure business logic for room occupancy and actuation.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"math"
	"time"
)

// Status is the textual occupancy status carried in telemetry.
type Status string

const (
	StatusOccupied Status = "Occupied"
	StatusFree     Status = "Free"
)

// LightLevel is the target level of the dimmable light.
type LightLevel int

const (
	LightOff LightLevel = iota
	LightMedium
	LightFull
)

func (l LightLevel) String() string {
	switch l {
	case LightOff:
		return "OFF"
	case LightMedium:
		return "MEDIUM"
	case LightFull:
		return "FULL"
	}
	return "UNKNOWN"
}

// ClimateSample is a temperature/humidity pair. A nil *ClimateSample means
// the sensor produced no valid reading this cycle.
type ClimateSample struct {
	TemperatureC float64
	HumidityPct  float64
}

// NewClimateSample returns nil if either value is NaN or infinite.
func NewClimateSample(tempC, humPct float64) *ClimateSample {
	if !finite(tempC) || !finite(humPct) {
		return nil
	}
	return &ClimateSample{TemperatureC: tempC, HumidityPct: humPct}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LightSample is an ambient light reading.
type LightSample struct {
	Raw     int
	Percent int // 0..100, higher = brighter
}

// Readings is one cycle's worth of sensor input.
type Readings struct {
	Time    time.Time
	Motion  bool
	Climate *ClimateSample // nil = sensor unavailable
	Light   LightSample
}

// Temperature returns the temperature, or nil if climate is absent.
func (r Readings) Temperature() *float64 {
	if r.Climate == nil {
		return nil
	}
	t := r.Climate.TemperatureC
	return &t
}

// OccupancyState is the persistent occupancy state of the room.
type OccupancyState struct {
	Occupied     bool
	LastMotionAt time.Time
}

// Status returns the telemetry status string for the state.
func (s OccupancyState) Status() Status {
	if s.Occupied {
		return StatusOccupied
	}
	return StatusFree
}

// ActuatorTargets is the desired actuator state for one cycle.
type ActuatorTargets struct {
	PowerOn      bool
	Light        LightLevel
	ThermalAlert bool
}

// EcoTargets is the target set for an unoccupied room.
var EcoTargets = ActuatorTargets{PowerOn: false, Light: LightOff, ThermalAlert: false}

// Snapshot is a point-in-time view of one cycle.
// It is a plain value and may be handed to other goroutines.
type Snapshot struct {
	Time      time.Time
	Occupancy OccupancyState
	Climate   *ClimateSample
	Light     LightSample
	Targets   ActuatorTargets
}

// NewSnapshot builds a snapshot, copying the climate sample so the
// snapshot does not alias the caller's readings.
func NewSnapshot(r Readings, occ OccupancyState, targets ActuatorTargets) Snapshot {
	var climate *ClimateSample
	if r.Climate != nil {
		c := *r.Climate
		climate = &c
	}
	return Snapshot{
		Time:      r.Time,
		Occupancy: occ,
		Climate:   climate,
		Light:     r.Light,
		Targets:   targets,
	}
}
