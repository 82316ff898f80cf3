// Package metrics exposes controller state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/room-controller/internal/logic"
)

// Sensor names used as label values.
const (
	SensorMotion  = "motion"
	SensorClimate = "climate"
	SensorLight   = "light"
)

// Metrics holds the controller's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	Occupied        prometheus.Gauge
	PowerOn         prometheus.Gauge
	LightLevel      prometheus.Gauge
	ThermalAlert    prometheus.Gauge
	AmbientLight    prometheus.Gauge
	Temperature     prometheus.Gauge
	Humidity        prometheus.Gauge
	ClimateValid    prometheus.Gauge
	Cycles          prometheus.Counter
	SensorErrors    *prometheus.CounterVec
	ActuatorErrors  *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	Published       *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	Degraded        prometheus.Counter
}

// New creates and registers all collectors, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_occupied", Help: "1 if the room is occupied.",
		}),
		PowerOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_power_on", Help: "1 if the power relay is commanded on.",
		}),
		LightLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_artificial_light_level", Help: "Commanded dimmer value.",
		}),
		ThermalAlert: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_thermal_alert", Help: "1 if the thermal alert is raised.",
		}),
		AmbientLight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_ambient_light_percent", Help: "Ambient light, 0-100.",
		}),
		Temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_temperature_celsius", Help: "Last valid temperature reading.",
		}),
		Humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_humidity_percent", Help: "Last valid relative humidity reading.",
		}),
		ClimateValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_climate_valid", Help: "1 if this cycle's climate reading was valid.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "room_cycles_total", Help: "Control cycles run.",
		}),
		SensorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_sensor_errors_total", Help: "Failed sensor reads.",
		}, []string{"sensor"}),
		ActuatorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_actuator_errors_total", Help: "Failed actuator commands.",
		}, []string{"actuator"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_occupancy_transitions_total", Help: "Occupancy state changes.",
		}, []string{"to"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_telemetry_published_total", Help: "Telemetry records delivered to a channel.",
		}, []string{"channel"}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_telemetry_publish_failures_total", Help: "Telemetry records a channel did not accept.",
		}, []string{"channel"}),
		Degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "room_telemetry_degraded_total", Help: "Telemetry records truncated or replaced by an error record.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Occupied, m.PowerOn, m.LightLevel, m.ThermalAlert, m.AmbientLight,
		m.Temperature, m.Humidity, m.ClimateValid, m.Cycles,
		m.SensorErrors, m.ActuatorErrors, m.Transitions,
		m.Published, m.PublishFailures, m.Degraded,
	)
	return m
}

// Observe updates the gauges from one cycle's snapshot.
func (m *Metrics) Observe(snap logic.Snapshot, levels logic.LevelValues) {
	m.Cycles.Inc()
	m.Occupied.Set(boolFloat(snap.Occupancy.Occupied))
	m.PowerOn.Set(boolFloat(snap.Targets.PowerOn))
	m.LightLevel.Set(float64(levels.Value(snap.Targets.Light)))
	m.ThermalAlert.Set(boolFloat(snap.Targets.ThermalAlert))
	m.AmbientLight.Set(float64(snap.Light.Percent))
	if snap.Climate != nil {
		m.ClimateValid.Set(1)
		m.Temperature.Set(snap.Climate.TemperatureC)
		m.Humidity.Set(snap.Climate.HumidityPct)
	} else {
		m.ClimateValid.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
