// Package iio reads the climate and ambient light sensors through the Linux
// Industrial I/O sysfs interface. The kernel dht11 driver exposes the
// DHT22 as an IIO device, and an ADC (ADS1015, MCP3008, ...) exposes the
// light-dependent resistor voltage as a raw channel.
package iio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is where IIO devices appear in sysfs.
const DefaultRoot = "/sys/bus/iio/devices"

// ErrUnavailable wraps every failed read. The DHT driver returns EIO on a
// bad checksum, which is routine and must not be treated as fatal.
var ErrUnavailable = errors.New("iio: sensor unavailable")

// ClimateSensor reads temperature and relative humidity.
type ClimateSensor interface {
	// Climate returns (°C, %RH). Any error means no valid reading this cycle.
	Climate() (float64, float64, error)
}

// LightSensor reads the raw ambient light ADC value.
type LightSensor interface {
	LightRaw() (int, error)
}

// Climate reads an IIO humidity/temperature device.
type Climate struct {
	dir string
}

// NewClimate opens the named IIO device (e.g. "iio:device0") under root.
func NewClimate(root, device string) (*Climate, error) {
	dir := filepath.Join(root, device)
	if _, err := os.Stat(filepath.Join(dir, "in_temp_input")); err != nil {
		return nil, fmt.Errorf("open climate device %s: %w", device, err)
	}
	return &Climate{dir: dir}, nil
}

// Climate reads both channels. Values are reported by the driver in
// milli-units.
func (c *Climate) Climate() (float64, float64, error) {
	mTemp, err := readInt(filepath.Join(c.dir, "in_temp_input"))
	if err != nil {
		return 0, 0, fmt.Errorf("read temperature: %w", err)
	}
	mHum, err := readInt(filepath.Join(c.dir, "in_humidityrelative_input"))
	if err != nil {
		return 0, 0, fmt.Errorf("read humidity: %w", err)
	}
	return float64(mTemp) / 1000, float64(mHum) / 1000, nil
}

// Light reads one raw ADC channel.
type Light struct {
	path string
}

// NewLight opens channel in_voltage<channel>_raw of the named IIO device.
func NewLight(root, device string, channel int) (*Light, error) {
	path := filepath.Join(root, device, fmt.Sprintf("in_voltage%d_raw", channel))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open light channel %s/%d: %w", device, channel, err)
	}
	return &Light{path: path}, nil
}

// LightRaw returns the raw ADC count.
func (l *Light) LightRaw() (int, error) {
	v, err := readInt(l.path)
	if err != nil {
		return 0, fmt.Errorf("read light: %w", err)
	}
	return v, nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, filepath.Base(path), err)
	}
	return v, nil
}
