// Package controller runs one room's sense, decide, actuate and report cycle.
package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/room-controller/internal/display"
	"github.com/sweeney/room-controller/internal/gpio"
	"github.com/sweeney/room-controller/internal/iio"
	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/metrics"
	"github.com/sweeney/room-controller/internal/pwm"
	"github.com/sweeney/room-controller/internal/status"
	"github.com/sweeney/room-controller/internal/telemetry"
)

// Recorder receives every emitted snapshot (e.g. a time-series writer).
type Recorder interface {
	Record(snap logic.Snapshot)
}

// NamedChannel is a telemetry channel with a name for logs and metrics.
type NamedChannel struct {
	Name    string
	Channel telemetry.Channel
}

// Config holds the cycle parameters.
type Config struct {
	IdleTimeout     time.Duration
	PublishInterval time.Duration
	Thresholds      logic.Thresholds
	Levels          logic.LevelValues
	Calibration     logic.LightCalibration
	Room            string
	MaxPayloadBytes int
}

// Hardware groups the sensors and actuators. Climate and Light may be nil
// when the device is not fitted; their fields are then absent every cycle.
type Hardware struct {
	Motion  gpio.MotionSensor
	Climate iio.ClimateSensor
	Light   iio.LightSensor
	Relay   gpio.Relay
	Dimmer  pwm.Dimmer
}

// Sinks are the consumers of each cycle's snapshot. All fields are optional.
type Sinks struct {
	Displays  []display.Sink
	Status    *status.Tracker
	Metrics   *metrics.Metrics
	Channels  []NamedChannel
	Recorders []Recorder
}

// Controller owns the occupancy state and drives one cycle per Step call.
// It is not safe for concurrent use; a single loop goroutine owns it.
type Controller struct {
	cfg     Config
	hw      Hardware
	sinks   Sinks
	tracker *logic.Tracker
	policy  logic.Policy
	emitter *telemetry.Emitter

	lastLight   *logic.LightSample
	stepped     bool
	wasOccupied bool
	failing     map[string]bool // channel or sensor name -> last attempt failed
}

// New creates a controller. The room starts Free.
func New(cfg Config, hw Hardware, sinks Sinks) *Controller {
	format := telemetry.Format{
		Room:            cfg.Room,
		Levels:          cfg.Levels,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
	}
	return &Controller{
		cfg:     cfg,
		hw:      hw,
		sinks:   sinks,
		tracker: logic.NewTracker(cfg.IdleTimeout),
		policy:  logic.NewPolicy(cfg.Thresholds),
		emitter: telemetry.NewEmitter(format, cfg.PublishInterval),
		failing: make(map[string]bool),
	}
}

// Read acquires one set of sensor readings. A failed sensor never aborts
// the read: motion reads as false, climate is absent and light falls back
// to the last good sample (or a zero reading, which selects full light).
func (c *Controller) Read(now time.Time) logic.Readings {
	r := logic.Readings{Time: now}

	if c.hw.Motion != nil {
		motion, err := c.hw.Motion.Motion()
		if err != nil {
			c.sensorFailed(metrics.SensorMotion, err)
		} else {
			c.sensorOK(metrics.SensorMotion)
			r.Motion = motion
		}
	}

	if c.hw.Climate != nil {
		t, h, err := c.hw.Climate.Climate()
		if err != nil {
			c.sensorFailed(metrics.SensorClimate, err)
		} else if r.Climate = logic.NewClimateSample(t, h); r.Climate == nil {
			c.sensorFailed(metrics.SensorClimate, fmt.Errorf("non-finite reading %v/%v", t, h))
		} else {
			c.sensorOK(metrics.SensorClimate)
		}
	}

	if c.hw.Light != nil {
		raw, err := c.hw.Light.LightRaw()
		if err != nil {
			c.sensorFailed(metrics.SensorLight, err)
			if c.lastLight != nil {
				r.Light = *c.lastLight
			}
		} else {
			c.sensorOK(metrics.SensorLight)
			s := c.cfg.Calibration.Sample(raw)
			c.lastLight = &s
			r.Light = s
		}
	}
	return r
}

// Step runs one full cycle at now and returns the snapshot it produced.
func (c *Controller) Step(now time.Time) logic.Snapshot {
	r := c.Read(now)

	occ := c.tracker.Update(now, r.Motion)
	c.logTransition(occ)

	targets := c.policy.Compute(occ.Occupied, r.Light.Percent, r.Temperature())
	c.apply(targets)

	snap := logic.NewSnapshot(r, occ, targets)

	for _, d := range c.sinks.Displays {
		d.Show(display.FromSnapshot(snap))
	}
	if c.sinks.Status != nil {
		c.sinks.Status.Update(snap)
	}
	if c.sinks.Metrics != nil {
		c.sinks.Metrics.Observe(snap, c.cfg.Levels)
	}

	if msg, ok := c.emitter.MaybeEmit(now, snap); ok {
		c.publish(now, snap, msg)
	}
	return snap
}

// Occupancy returns the current occupancy state.
func (c *Controller) Occupancy() logic.OccupancyState {
	return c.tracker.State()
}

func (c *Controller) apply(t logic.ActuatorTargets) {
	if c.hw.Relay != nil {
		if err := c.hw.Relay.SetPower(t.PowerOn); err != nil {
			log.Printf("relay error: %v", err)
			c.actuatorFailed("relay")
		}
	}
	if c.hw.Dimmer != nil {
		if err := c.hw.Dimmer.SetLevel(c.cfg.Levels.Value(t.Light)); err != nil {
			log.Printf("dimmer error: %v", err)
			c.actuatorFailed("dimmer")
		}
	}
}

func (c *Controller) publish(now time.Time, snap logic.Snapshot, msg telemetry.Message) {
	if msg.Degraded {
		log.Printf("telemetry: degraded record emitted: %s", msg.Payload)
		if c.sinks.Metrics != nil {
			c.sinks.Metrics.Degraded.Inc()
		}
	}
	if c.sinks.Status != nil {
		c.sinks.Status.RecordEmit(now, msg.Degraded)
	}
	for _, r := range c.sinks.Recorders {
		r.Record(snap)
	}

	for _, ch := range c.sinks.Channels {
		err := ch.Channel.Publish(msg.Payload)
		if err != nil {
			if !c.failing[ch.Name] {
				log.Printf("publish error (%s): %v", ch.Name, err)
			}
			c.failing[ch.Name] = true
			if c.sinks.Metrics != nil {
				c.sinks.Metrics.PublishFailures.WithLabelValues(ch.Name).Inc()
			}
			continue
		}
		if c.failing[ch.Name] {
			log.Printf("publish (%s) recovered", ch.Name)
			c.failing[ch.Name] = false
		}
		if c.sinks.Metrics != nil {
			c.sinks.Metrics.Published.WithLabelValues(ch.Name).Inc()
		}
	}
}

func (c *Controller) logTransition(occ logic.OccupancyState) {
	first := !c.stepped
	changed := c.stepped && occ.Occupied != c.wasOccupied
	c.stepped = true
	c.wasOccupied = occ.Occupied
	if !first && !changed {
		return
	}

	if occ.Occupied {
		log.Printf("occupancy: room occupied")
	} else if changed {
		log.Printf("occupancy: idle for more than %v, room free, eco mode", c.tracker.IdleTimeout())
	}
	if changed && c.sinks.Metrics != nil {
		c.sinks.Metrics.Transitions.WithLabelValues(string(occ.Status())).Inc()
	}
}

// sensorFailed logs the first failure of a run; a sensor that stays broken
// is visible in the metrics and status counters rather than the log.
func (c *Controller) sensorFailed(sensor string, err error) {
	if !c.failing[sensor] {
		log.Printf("%s sensor error: %v", sensor, err)
		c.failing[sensor] = true
	}
	if c.sinks.Metrics != nil {
		c.sinks.Metrics.SensorErrors.WithLabelValues(sensor).Inc()
	}
	if c.sinks.Status != nil {
		c.sinks.Status.RecordSensorFailure()
	}
}

func (c *Controller) sensorOK(sensor string) {
	if c.failing[sensor] {
		log.Printf("%s sensor recovered", sensor)
		c.failing[sensor] = false
	}
}

func (c *Controller) actuatorFailed(name string) {
	if c.sinks.Metrics != nil {
		c.sinks.Metrics.ActuatorErrors.WithLabelValues(name).Inc()
	}
}

// Close switches the actuators off and releases all hardware, returning
// every error encountered.
func (c *Controller) Close() error {
	var errs []error
	closers := []struct {
		name string
		c    interface{ Close() error }
	}{
		{"relay", c.hw.Relay},
		{"dimmer", c.hw.Dimmer},
		{"motion", c.hw.Motion},
	}
	for _, cl := range closers {
		if cl.c == nil {
			continue
		}
		if err := cl.c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
		}
	}
	return errors.Join(errs...)
}
