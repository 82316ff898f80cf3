// Package influx records emitted room snapshots as InfluxDB points.
package influx

import (
	"log"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sweeney/room-controller/internal/logic"
)

// Measurement is the InfluxDB measurement name for room snapshots.
const Measurement = "room_status"

// Config configures a Recorder.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Room   string
}

// Recorder writes one point per telemetry emission through the
// non-blocking write API; batching and retries happen in the client.
type Recorder struct {
	client influxdb2.Client
	write  api.WriteAPI
	room   string
	levels logic.LevelValues
	done   chan struct{}
}

// NewRecorder creates a recorder and starts logging asynchronous write
// errors.
func NewRecorder(cfg Config, levels logic.LevelValues) *Recorder {
	opts := influxdb2.DefaultOptions().
		SetBatchSize(20).
		SetFlushInterval(10_000)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	r := &Recorder{
		client: client,
		write:  client.WriteAPI(cfg.Org, cfg.Bucket),
		room:   cfg.Room,
		levels: levels,
		done:   make(chan struct{}),
	}
	errs := r.write.Errors()
	go func() {
		defer close(r.done)
		for err := range errs {
			log.Printf("influx: write error: %v", err)
		}
	}()
	return r
}

// Record enqueues the snapshot.
func (r *Recorder) Record(snap logic.Snapshot) {
	r.write.WritePoint(Point(r.room, r.levels, snap))
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() {
	r.write.Flush()
	r.client.Close()
	<-r.done
}

// Point converts a snapshot to an InfluxDB point. Climate fields are
// omitted when the sensor gave no reading.
func Point(room string, levels logic.LevelValues, snap logic.Snapshot) *write.Point {
	tags := map[string]string{
		"room":     room,
		"occupied": strconv.FormatBool(snap.Occupancy.Occupied),
	}
	fields := map[string]interface{}{
		"ambient_light_pct":      snap.Light.Percent,
		"ambient_light_raw":      snap.Light.Raw,
		"artificial_light_level": levels.Value(snap.Targets.Light),
		"power_on":               snap.Targets.PowerOn,
		"thermal_alert":          snap.Targets.ThermalAlert,
	}
	if snap.Climate != nil {
		fields["temperature_c"] = snap.Climate.TemperatureC
		fields["humidity_pct"] = snap.Climate.HumidityPct
	}
	return influxdb2.NewPoint(Measurement, tags, fields, snap.Time)
}
