// Command room-controller drives one room's power relay, dimmable light and
// thermal alert from motion, climate and ambient light sensors, and
// publishes the room status to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/room-controller/internal/config"
	"github.com/sweeney/room-controller/internal/controller"
	"github.com/sweeney/room-controller/internal/display"
	"github.com/sweeney/room-controller/internal/gpio"
	"github.com/sweeney/room-controller/internal/iio"
	"github.com/sweeney/room-controller/internal/influx"
	"github.com/sweeney/room-controller/internal/kafka"
	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/metrics"
	"github.com/sweeney/room-controller/internal/mqtt"
	"github.com/sweeney/room-controller/internal/pwm"
	"github.com/sweeney/room-controller/internal/status"
	"github.com/sweeney/room-controller/internal/telemetry"
	"github.com/sweeney/room-controller/internal/web"
)

// overrides are command-line values that win over the config file.
// "off" disables the broker or HTTP server.
type overrides struct {
	Room   string
	Broker string
	HTTP   string
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: ./room-controller.yaml, then /etc/room-controller/config.yaml)")
	room := flag.String("room", "", "Room name (overrides config)")
	broker := flag.String("broker", "", `MQTT broker address (overrides config, "off" disables)`)
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	printState := flag.Bool("print-state", false, "Read the sensors once, print the display lines and exit")

	flag.Parse()

	cfg, path, err := loadConfig(*configPath, overrides{Room: *room, Broker: *broker, HTTP: *httpAddr})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if path != "" {
		log.Printf("config: loaded %s", path)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig(explicit string, o overrides) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	if o.Room != "" {
		cfg.Room = o.Room
	}
	switch o.Broker {
	case "":
	case "off":
		cfg.MQTT.Broker = ""
	default:
		cfg.MQTT.Broker = o.Broker
	}
	switch o.HTTP {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = o.HTTP
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func run(cfg *config.Config, printState bool) error {
	hw, err := openHardware(cfg.Hardware)
	if err != nil {
		return err
	}

	if printState {
		ctrl := controller.New(controllerConfig(cfg), hw, controller.Sinks{})
		defer ctrl.Close()
		printStatus(os.Stdout, ctrl.Read(time.Now()))
		return nil
	}

	bootID := uuid.NewString()
	m := metrics.New()

	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		Room:              cfg.Room,
		IdleTimeoutMs:     cfg.IdleTimeout.Milliseconds(),
		PublishIntervalMs: cfg.PublishInterval.Milliseconds(),
		PollMs:            cfg.PollInterval.Milliseconds(),
		HeartbeatMs:       cfg.HeartbeatInterval.Milliseconds(),
		Broker:            cfg.MQTT.Broker,
		HTTPAddr:          cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	sinks := controller.Sinks{Status: tracker, Metrics: m}
	if cfg.Display {
		sinks.Displays = append(sinks.Displays, display.NewWriter(os.Stdout))
	}

	// Initialize MQTT
	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		topics := mqtt.TopicsFor(cfg.MQTT.TopicPrefix, cfg.Room)
		opts := mqtt.DefaultOptions(cfg.MQTT.Broker, clientID(cfg, bootID), topics)
		opts.BootID = bootID
		opts.StartupRetries = cfg.MQTT.StartupRetries
		pub := mqtt.NewRealPublisher(opts)
		defer pub.Close()
		publisher = pub

		sinks.Channels = append(sinks.Channels, controller.NamedChannel{
			Name:    "mqtt",
			Channel: telemetry.NewBreakerChannel(pub, breakerSettings("mqtt", cfg.MQTT)),
		})
		log.Printf("mqtt: telemetry on %s, system events on %s", topics.Telemetry, topics.System)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Key:     cfg.Room,
		})
		if err != nil {
			return fmt.Errorf("init kafka: %w", err)
		}
		defer kp.Close()
		sinks.Channels = append(sinks.Channels, controller.NamedChannel{
			Name:    "kafka",
			Channel: telemetry.NewBreakerChannel(kp, breakerSettings("kafka", cfg.MQTT)),
		})
		log.Printf("kafka: telemetry on %s via %s", cfg.Kafka.Topic, strings.Join(cfg.Kafka.Brokers, ","))
	}

	if cfg.Influx.URL != "" {
		rec := influx.NewRecorder(influx.Config{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
			Room:   cfg.Room,
		}, cfg.LevelValues())
		defer rec.Close()
		sinks.Recorders = append(sinks.Recorders, rec)
		log.Printf("influx: recording to %s/%s", cfg.Influx.URL, cfg.Influx.Bucket)
	}

	ctrl := controller.New(controllerConfig(cfg), hw, sinks)
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Printf("close hardware: %v", err)
		}
	}()

	// Publish startup event with full status snapshot
	publishSystem(publisher, tracker, time.Now(), mqtt.EventStartup, "", true)

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: room=%s idle=%v publish=%v poll=%v heartbeat=%v boot=%s",
		cfg.Room, cfg.IdleTimeout, cfg.PublishInterval, cfg.PollInterval, cfg.HeartbeatInterval, bootID)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, tracker, cfg.HeartbeatInterval, time.Now, ticker.C, sigCh)
}

// runLoop owns the controller. Every tick runs one cycle; a heartbeat is
// published every heartbeat interval (0 disables); a signal publishes
// SHUTDOWN and returns. publisher and tracker may be nil.
func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewCadenceFrom(heartbeat, now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			publishSystem(publisher, tracker, now(), mqtt.EventShutdown, signalName(s), true)
			return nil

		case <-tick:
			t := now()
			ctrl.Step(t)

			if tracker != nil && publisher != nil {
				tracker.SetMQTTConnected(publisher.IsConnected())
			}

			if hb.Due(t) {
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
				}
				publishSystem(publisher, tracker, t, mqtt.EventHeartbeat, "", false)
			}
		}
	}
}

// publishSystem sends a lifecycle event carrying the current status snapshot.
func publishSystem(publisher mqtt.Publisher, tracker *status.Tracker, at time.Time, event, reason string, retained bool) {
	if publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: at,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if tracker != nil {
		tracker.SetMQTTConnected(publisher.IsConnected())
		e.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), event, reason)
	}

	name := strings.ToLower(event)
	if err := publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
	} else {
		log.Printf("published %s event", name)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func controllerConfig(cfg *config.Config) controller.Config {
	return controller.Config{
		IdleTimeout:     cfg.IdleTimeout,
		PublishInterval: cfg.PublishInterval,
		Thresholds:      cfg.PolicyThresholds(),
		Levels:          cfg.LevelValues(),
		Calibration:     cfg.LightCalibration(),
		Room:            cfg.Room,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
	}
}

func breakerSettings(name string, c config.MQTTConfig) telemetry.BreakerSettings {
	s := telemetry.DefaultBreakerSettings(name)
	if c.BreakerFailures > 0 {
		s.ConsecutiveFailures = c.BreakerFailures
	}
	if c.BreakerOpen > 0 {
		s.OpenFor = c.BreakerOpen
	}
	return s
}

func clientID(cfg *config.Config, bootID string) string {
	if cfg.MQTT.ClientID != "" {
		return cfg.MQTT.ClientID
	}
	return "room-controller-" + cfg.Room + "-" + bootID[:8]
}

// openHardware opens the motion input and relay, which are required, and
// the climate, light and dimmer devices, which the controller can run
// without. Missing optional devices are logged.
func openHardware(h config.HardwareConfig) (controller.Hardware, error) {
	var hw controller.Hardware

	motion, err := gpio.NewRealMotion(h.GPIOChip, h.MotionPin)
	if err != nil {
		return hw, fmt.Errorf("init motion sensor: %w", err)
	}
	hw.Motion = motion

	relay, err := gpio.NewRealRelay(h.GPIOChip, h.RelayPin)
	if err != nil {
		return hw, errors.Join(fmt.Errorf("init relay: %w", err), motion.Close())
	}
	hw.Relay = relay

	if c, err := iio.NewClimate(h.IIORoot, h.ClimateDevice); err != nil {
		log.Printf("climate sensor unavailable, running without: %v", err)
	} else {
		hw.Climate = c
	}

	if l, err := iio.NewLight(h.IIORoot, h.LightDevice, h.LightChannel); err != nil {
		log.Printf("light sensor unavailable, running without: %v", err)
	} else {
		hw.Light = l
	}

	if d, err := pwm.Open(h.PWMRoot, h.PWMChip, h.PWMChannel, h.PWMPeriod); err != nil {
		log.Printf("dimmer unavailable, running without: %v", err)
	} else {
		hw.Dimmer = d
	}
	return hw, nil
}

// printStatus writes one reading as the display would show it, followed by
// the raw values.
func printStatus(w io.Writer, r logic.Readings) {
	snap := logic.NewSnapshot(r, logic.OccupancyState{Occupied: r.Motion}, logic.EcoTargets)
	display.NewWriter(w).Show(display.FromSnapshot(snap))

	climate := "unavailable"
	if r.Climate != nil {
		climate = fmt.Sprintf("%.1fC %.1f%%RH", r.Climate.TemperatureC, r.Climate.HumidityPct)
	}
	fmt.Fprintf(w, "motion: %v, climate: %s, light: %d%% (raw %d)\n", r.Motion, climate, r.Light.Percent, r.Light.Raw)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
