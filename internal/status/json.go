package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Room          string       `json:"room"`
	Occupancy     string       `json:"occupancy"`
	LastMotion    string       `json:"last_motion,omitempty"`
	Temperature   *float64     `json:"temperature_c"`
	Humidity      *float64     `json:"humidity_pct"`
	AmbientLight  int          `json:"ambient_light_pct"`
	Light         string       `json:"artificial_light"`
	PowerOn       bool         `json:"power_on"`
	ThermalAlert  bool         `json:"thermal_alert"`
	Ready         bool         `json:"ready"`
	LastEmit      string       `json:"last_emit,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	BootID        string       `json:"boot_id,omitempty"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of running totals.
type CountsJSON struct {
	Cycles      int `json:"cycles"`
	Emitted     int `json:"emitted"`
	Degraded    int `json:"degraded"`
	Occupied    int `json:"occupied"`
	Freed       int `json:"freed"`
	SensorFails int `json:"sensor_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	IdleTimeoutMs     int64  `json:"idle_timeout_ms"`
	PublishIntervalMs int64  `json:"publish_interval_ms"`
	PollMs            int64  `json:"poll_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
}

// OccupancyLabel returns the status label, or "UNKNOWN" before the first cycle.
func (s Snapshot) OccupancyLabel() string {
	if !s.Ready {
		return "UNKNOWN"
	}
	return string(s.Room.Occupancy.Status())
}

func round1(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Room:          snap.Config.Room,
		Occupancy:     snap.OccupancyLabel(),
		AmbientLight:  snap.Room.Light.Percent,
		Light:         snap.Room.Targets.Light.String(),
		PowerOn:       snap.Room.Targets.PowerOn,
		ThermalAlert:  snap.Room.Targets.ThermalAlert,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		BootID:        snap.BootID,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:      snap.Counts.Cycles,
			Emitted:     snap.Counts.Emitted,
			Degraded:    snap.Counts.Degraded,
			Occupied:    snap.Counts.Occupied,
			Freed:       snap.Counts.Freed,
			SensorFails: snap.Counts.SensorFails,
		},
		Config: ConfigJSON{
			IdleTimeoutMs:     snap.Config.IdleTimeoutMs,
			PublishIntervalMs: snap.Config.PublishIntervalMs,
			PollMs:            snap.Config.PollMs,
			HeartbeatMs:       snap.Config.HeartbeatMs,
			Broker:            snap.Config.Broker,
			HTTPAddr:          snap.Config.HTTPAddr,
		},
	}
	if !snap.Ready {
		inner.Light = "UNKNOWN"
	}
	if !snap.Room.Occupancy.LastMotionAt.IsZero() {
		inner.LastMotion = snap.Room.Occupancy.LastMotionAt.UTC().Format(time.RFC3339)
	}
	if !snap.LastEmit.IsZero() {
		inner.LastEmit = snap.LastEmit.UTC().Format(time.RFC3339)
	}
	if c := snap.Room.Climate; c != nil {
		inner.Temperature = round1(c.TemperatureC)
		inner.Humidity = round1(c.HumidityPct)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
