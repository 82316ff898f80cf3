package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/room-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(v int64) string {
		if v == 0 {
			return "disabled"
		}
		return (time.Duration(v) * time.Millisecond).String()
	},
	"ago": func(now, t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return now.Sub(t).Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Room {{.Config.Room}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.alert { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Room {{.Config.Room}}</h1>

<h2>Occupancy</h2>
<table>
<tr><th>Status</th><td id="occupancy" class="{{if not .Ready}}unknown{{else if .Room.Occupancy.Occupied}}on{{else}}off{{end}}">{{.Occupancy}}</td></tr>
<tr><th>Last motion</th><td>{{ago .Now .Room.Occupancy.LastMotionAt}}</td></tr>
<tr><th>Idle timeout</th><td>{{ms .Config.IdleTimeoutMs}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>Temperature</th><td>{{with .Room.Climate}}{{printf "%.1f" .TemperatureC}} &deg;C{{else}}--{{end}}</td></tr>
<tr><th>Humidity</th><td>{{with .Room.Climate}}{{printf "%.1f" .HumidityPct}} %{{else}}--{{end}}</td></tr>
<tr><th>Ambient light</th><td>{{.Room.Light.Percent}} % (raw {{.Room.Light.Raw}})</td></tr>
</table>

<h2>Actuators</h2>
<table>
<tr><th>Power</th><td class="{{if .Room.Targets.PowerOn}}on{{else}}off{{end}}">{{if .Room.Targets.PowerOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Artificial light</th><td>{{.Light}}</td></tr>
<tr><th>Thermal alert</th><td class="{{if .Room.Targets.ThermalAlert}}alert{{else}}off{{end}}">{{if .Room.Targets.ThermalAlert}}RAISED{{else}}clear{{end}}</td></tr>
</table>

<h2>Telemetry</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Last emit</th><td>{{ago .Now .LastEmit}}</td></tr>
<tr><th>Emitted</th><td>{{.Counts.Emitted}} ({{.Counts.Degraded}} degraded)</td></tr>
<tr><th>Publish interval</th><td>{{ms .Config.PublishIntervalMs}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot ID</th><td>{{.BootID}}</td></tr>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Sensor failures</th><td>{{.Counts.SensorFails}}</td></tr>
<tr><th>Poll</th><td>{{ms .Config.PollMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template methods can't take arguments, so precompute the derived fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Occupancy string
		Light     string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Occupancy: snap.OccupancyLabel(),
		Light:     "UNKNOWN",
	}
	if snap.Ready {
		data.Light = snap.Room.Targets.Light.String()
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
