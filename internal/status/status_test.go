package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func occupiedRoom() logic.Snapshot {
	return logic.Snapshot{
		Time:      start.Add(time.Minute),
		Occupancy: logic.OccupancyState{Occupied: true, LastMotionAt: start.Add(time.Minute)},
		Climate:   &logic.ClimateSample{TemperatureC: 25.04, HumidityPct: 39.96},
		Light:     logic.LightSample{Raw: 1228, Percent: 30},
		Targets:   logic.ActuatorTargets{PowerOn: true, Light: logic.LightFull, ThermalAlert: true},
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Room: "room01", PollMs: 200, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, "boot-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.BootID != "boot-1" {
		t.Errorf("BootID: got %q", snap.BootID)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.OccupancyLabel() != "UNKNOWN" {
		t.Errorf("OccupancyLabel: got %q, want UNKNOWN", snap.OccupancyLabel())
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.Update(occupiedRoom())

	snap := tr.Snapshot()
	if !snap.Ready {
		t.Error("expected Ready=true")
	}
	if snap.OccupancyLabel() != "Occupied" {
		t.Errorf("OccupancyLabel: got %q", snap.OccupancyLabel())
	}
	if snap.Counts.Cycles != 1 {
		t.Errorf("Cycles: got %d, want 1", snap.Counts.Cycles)
	}
	// The first cycle sets the baseline; it is not a transition.
	if snap.Counts.Occupied != 0 {
		t.Errorf("Occupied transitions: got %d, want 0", snap.Counts.Occupied)
	}
}

func TestUpdateCountsTransitions(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	free := logic.Snapshot{Targets: logic.EcoTargets}

	tr.Update(free)
	tr.Update(occupiedRoom())
	tr.Update(occupiedRoom())
	tr.Update(free)
	tr.Update(occupiedRoom())

	c := tr.Snapshot().Counts
	if c.Occupied != 2 || c.Freed != 1 {
		t.Errorf("transitions: got occupied=%d freed=%d, want 2/1", c.Occupied, c.Freed)
	}
	if c.Cycles != 5 {
		t.Errorf("Cycles: got %d, want 5", c.Cycles)
	}
}

func TestRecordEmit(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	at := start.Add(2 * time.Second)

	tr.RecordEmit(start, false)
	tr.RecordEmit(at, true)

	snap := tr.Snapshot()
	if !snap.LastEmit.Equal(at) {
		t.Errorf("LastEmit: got %v, want %v", snap.LastEmit, at)
	}
	if snap.Counts.Emitted != 2 || snap.Counts.Degraded != 1 {
		t.Errorf("counts: got %+v", snap.Counts)
	}
}

func TestRecordSensorFailure(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.RecordSensorFailure()
	tr.RecordSensorFailure()
	if got := tr.Snapshot().Counts.SensorFails; got != 2 {
		t.Errorf("SensorFails: got %d, want 2", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}
	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	room := occupiedRoom()
	tr.Update(room)

	snap1 := tr.Snapshot()
	room.Climate.TemperatureC = 99
	tr.Update(logic.Snapshot{Targets: logic.EcoTargets})

	if !snap1.Room.Occupancy.Occupied {
		t.Error("snapshot should be a copy; occupancy was modified")
	}
	if snap1.Room.Climate.TemperatureC != 25.04 {
		t.Errorf("snapshot climate aliased caller's sample: got %v", snap1.Room.Climate.TemperatureC)
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Room:          occupiedRoom(),
		Ready:         true,
		Counts:        Counts{Cycles: 10, Emitted: 3, Occupied: 1},
		BootID:        "boot-1",
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Room: "room01", PollMs: 200, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Room != "room01" {
		t.Errorf("Room: got %q", s.Room)
	}
	if s.Occupancy != "Occupied" {
		t.Errorf("Occupancy: got %q, want Occupied", s.Occupancy)
	}
	if s.Light != "FULL" {
		t.Errorf("Light: got %q, want FULL", s.Light)
	}
	if s.Temperature == nil || *s.Temperature != 25.0 {
		t.Errorf("Temperature: got %v, want 25.0", s.Temperature)
	}
	if s.Humidity == nil || *s.Humidity != 40.0 {
		t.Errorf("Humidity: got %v, want 40.0", s.Humidity)
	}
	if !s.PowerOn || !s.ThermalAlert {
		t.Errorf("actuators: power=%v alert=%v", s.PowerOn, s.ThermalAlert)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.Emitted != 3 {
		t.Errorf("Counts.Emitted: got %d, want 3", s.Counts.Emitted)
	}
	if s.LastMotion != "2026-01-01T00:01:00Z" {
		t.Errorf("LastMotion: got %q", s.LastMotion)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web format should carry no event, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONBeforeFirstCycle(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var raw map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatal(err)
	}
	s := raw["status"].(map[string]interface{})

	if s["occupancy"] != "UNKNOWN" || s["artificial_light"] != "UNKNOWN" {
		t.Errorf("expected UNKNOWN states, got %v/%v", s["occupancy"], s["artificial_light"])
	}
	if v, ok := s["temperature_c"]; !ok || v != nil {
		t.Errorf("temperature_c should be present and null, got %v (present=%v)", v, ok)
	}
	if _, ok := s["last_motion"]; ok {
		t.Error("last_motion should be omitted before any motion")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Room:      occupiedRoom(),
		Ready:     true,
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    Config{Room: "room01", Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Occupancy != "Occupied" {
		t.Errorf("Occupancy: got %q", parsed.Status.Occupancy)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(30 * time.Minute)}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var raw map[string]interface{}
	json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw)
	s := raw["status"].(map[string]interface{})
	if _, exists := s["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if s["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", s["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.Snapshot{Occupancy: logic.OccupancyState{Occupied: i%3 == 0}})
			tr.RecordEmit(start, i%2 == 0)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
