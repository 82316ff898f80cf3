// Package config handles room controller configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/room-controller/internal/gpio"
	"github.com/sweeney/room-controller/internal/iio"
	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/mqtt"
	"github.com/sweeney/room-controller/internal/pwm"
)

// DefaultSearchPaths returns the config file search order used when no
// -config flag is given.
func DefaultSearchPaths() []string {
	return []string{"room-controller.yaml", "/etc/room-controller/config.yaml"}
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists,
// or "" if none does (defaults are then used).
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Config holds all room controller configuration.
type Config struct {
	Room string `yaml:"room"`

	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	PublishInterval   time.Duration `yaml:"publish_interval"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Levels     LevelsConfig     `yaml:"light_levels"`
	Light      LightConfig      `yaml:"light_calibration"`

	MQTT     MQTTConfig     `yaml:"mqtt"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Influx   InfluxConfig   `yaml:"influx"`
	HTTP     HTTPConfig     `yaml:"http"`
	Hardware HardwareConfig `yaml:"hardware"`

	MaxPayloadBytes int  `yaml:"max_payload_bytes"`
	Display         bool `yaml:"display"`
}

// ThresholdsConfig configures the actuation policy.
type ThresholdsConfig struct {
	BrightPct  int     `yaml:"bright_pct"`
	DimPct     int     `yaml:"dim_pct"`
	AlertTempC float64 `yaml:"alert_temp_c"`
}

// LevelsConfig configures the dimmer value for each light level.
type LevelsConfig struct {
	Off    int `yaml:"off"`
	Medium int `yaml:"medium"`
	Full   int `yaml:"full"`
}

// LightConfig calibrates the ambient light sensor.
type LightConfig struct {
	RawMin   int  `yaml:"raw_min"`
	RawMax   int  `yaml:"raw_max"`
	Inverted bool `yaml:"inverted"`
}

// MQTTConfig configures the primary publish channel.
type MQTTConfig struct {
	Broker          string        `yaml:"broker"` // empty disables MQTT
	TopicPrefix     string        `yaml:"topic_prefix"`
	ClientID        string        `yaml:"client_id"` // empty derives from room and boot id
	StartupRetries  uint64        `yaml:"startup_retries"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerOpen     time.Duration `yaml:"breaker_open"`
}

// KafkaConfig configures the optional Kafka channel.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // empty disables Kafka
	Topic   string   `yaml:"topic"`
}

// InfluxConfig configures the optional InfluxDB recorder.
type InfluxConfig struct {
	URL    string `yaml:"url"` // empty disables InfluxDB
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// HardwareConfig locates the sensors and actuators.
type HardwareConfig struct {
	GPIOChip      string        `yaml:"gpio_chip"`
	MotionPin     int           `yaml:"motion_pin"`
	RelayPin      int           `yaml:"relay_pin"`
	IIORoot       string        `yaml:"iio_root"`
	ClimateDevice string        `yaml:"climate_device"`
	LightDevice   string        `yaml:"light_device"`
	LightChannel  int           `yaml:"light_channel"`
	PWMRoot       string        `yaml:"pwm_root"`
	PWMChip       int           `yaml:"pwm_chip"`
	PWMChannel    int           `yaml:"pwm_channel"`
	PWMPeriod     time.Duration `yaml:"pwm_period"`
}

// Default returns a configuration with production defaults.
func Default() *Config {
	th := logic.DefaultThresholds()
	lv := logic.DefaultLevelValues()
	cal := logic.DefaultLightCalibration()

	return &Config{
		Room:              "room01",
		IdleTimeout:       10 * time.Minute,
		PublishInterval:   2 * time.Second,
		PollInterval:      200 * time.Millisecond,
		HeartbeatInterval: 15 * time.Minute,
		Thresholds: ThresholdsConfig{
			BrightPct:  th.BrightPct,
			DimPct:     th.DimPct,
			AlertTempC: th.AlertTempC,
		},
		Levels: LevelsConfig{Off: lv.Off, Medium: lv.Medium, Full: lv.Full},
		Light:  LightConfig{RawMin: cal.RawMin, RawMax: cal.RawMax, Inverted: cal.Inverted},
		MQTT: MQTTConfig{
			Broker:          "tcp://localhost:1883",
			TopicPrefix:     mqtt.DefaultTopicPrefix,
			StartupRetries:  4,
			BreakerFailures: 3,
			BreakerOpen:     30 * time.Second,
		},
		Kafka: KafkaConfig{Topic: "room.telemetry"},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Hardware: HardwareConfig{
			GPIOChip:      gpio.DefaultChip,
			MotionPin:     gpio.DefaultPinMotion,
			RelayPin:      gpio.DefaultPinRelay,
			IIORoot:       iio.DefaultRoot,
			ClimateDevice: "iio:device0",
			LightDevice:   "iio:device1",
			LightChannel:  0,
			PWMRoot:       pwm.DefaultRoot,
			PWMChip:       0,
			PWMChannel:    0,
			PWMPeriod:     pwm.DefaultPeriod,
		},
		MaxPayloadBytes: 256,
		Display:         true,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (e.g. ${INFLUX_TOKEN}) before parsing.
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for values the controller cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Room == "" {
		errs = append(errs, errors.New("room must not be empty"))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must be positive, got %v", c.IdleTimeout))
	}
	if c.PublishInterval <= 0 {
		errs = append(errs, fmt.Errorf("publish_interval must be positive, got %v", c.PublishInterval))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval))
	}
	if c.HeartbeatInterval < 0 {
		errs = append(errs, fmt.Errorf("heartbeat_interval must not be negative, got %v", c.HeartbeatInterval))
	}
	t := c.Thresholds
	if t.DimPct < 0 || t.BrightPct > 100 || t.DimPct >= t.BrightPct {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 <= dim_pct < bright_pct <= 100, got %d/%d", t.DimPct, t.BrightPct))
	}
	for name, v := range map[string]int{"off": c.Levels.Off, "medium": c.Levels.Medium, "full": c.Levels.Full} {
		if v < 0 || v > pwm.MaxLevel {
			errs = append(errs, fmt.Errorf("light_levels.%s must be in 0..%d, got %d", name, pwm.MaxLevel, v))
		}
	}
	if c.Light.RawMax <= c.Light.RawMin {
		errs = append(errs, fmt.Errorf("light_calibration raw_max must exceed raw_min, got %d..%d", c.Light.RawMin, c.Light.RawMax))
	}
	if c.MaxPayloadBytes < 0 {
		errs = append(errs, fmt.Errorf("max_payload_bytes must not be negative, got %d", c.MaxPayloadBytes))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when kafka.brokers is set"))
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.New("influx.org and influx.bucket are required when influx.url is set"))
	}
	return errors.Join(errs...)
}

// PolicyThresholds converts to the logic type.
func (c *Config) PolicyThresholds() logic.Thresholds {
	return logic.Thresholds{
		BrightPct:  c.Thresholds.BrightPct,
		DimPct:     c.Thresholds.DimPct,
		AlertTempC: c.Thresholds.AlertTempC,
	}
}

// LevelValues converts to the logic type.
func (c *Config) LevelValues() logic.LevelValues {
	return logic.LevelValues{Off: c.Levels.Off, Medium: c.Levels.Medium, Full: c.Levels.Full}
}

// LightCalibration converts to the logic type.
func (c *Config) LightCalibration() logic.LightCalibration {
	return logic.LightCalibration{RawMin: c.Light.RawMin, RawMax: c.Light.RawMax, Inverted: c.Light.Inverted}
}
