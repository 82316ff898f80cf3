// Package pwm drives the dimmable light through the Linux PWM sysfs
// interface (/sys/class/pwm/pwmchipN/pwmM).
package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultRoot is where PWM chips appear in sysfs.
const DefaultRoot = "/sys/class/pwm"

// DefaultPeriod is 1 kHz, well above visible flicker for an LED driver.
const DefaultPeriod = time.Millisecond

// MaxLevel is the full-scale dimmer value.
const MaxLevel = 255

// Dimmer sets the artificial light output.
type Dimmer interface {
	// SetLevel sets the output in 0..MaxLevel. Repeating the current level
	// is a no-op.
	SetLevel(level int) error

	// Close switches the light off and releases the channel.
	Close() error
}

// Channel is one sysfs PWM output.
type Channel struct {
	chipDir  string
	dir      string
	channel  int
	period   time.Duration
	level    int
	known    bool
	exported bool
}

// Open exports the channel if necessary, sets its period and enables it
// with a zero duty cycle.
func Open(root string, chip, channel int, period time.Duration) (*Channel, error) {
	if period <= 0 {
		period = DefaultPeriod
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	c := &Channel{
		chipDir: chipDir,
		dir:     filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel)),
		channel: channel,
		period:  period,
	}

	if _, err := os.Stat(c.dir); errors.Is(err, os.ErrNotExist) {
		if err := write(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", channel, err)
		}
		c.exported = true
	}

	if err := write(filepath.Join(c.dir, "duty_cycle"), "0"); err != nil {
		return nil, fmt.Errorf("reset duty cycle: %w", err)
	}
	if err := write(filepath.Join(c.dir, "period"), strconv.FormatInt(period.Nanoseconds(), 10)); err != nil {
		return nil, fmt.Errorf("set period: %w", err)
	}
	if err := write(filepath.Join(c.dir, "enable"), "1"); err != nil {
		return nil, fmt.Errorf("enable pwm%d: %w", channel, err)
	}
	c.known = true
	return c, nil
}

// SetLevel sets the duty cycle to level/MaxLevel of the period.
func (c *Channel) SetLevel(level int) error {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	if c.known && c.level == level {
		return nil
	}
	duty := c.period.Nanoseconds() * int64(level) / MaxLevel
	if err := write(filepath.Join(c.dir, "duty_cycle"), strconv.FormatInt(duty, 10)); err != nil {
		c.known = false
		return fmt.Errorf("set duty cycle: %w", err)
	}
	c.level = level
	c.known = true
	return nil
}

// Level returns the last level written.
func (c *Channel) Level() int {
	return c.level
}

// Close switches the light off, disables the channel and unexports it if
// Open exported it.
func (c *Channel) Close() error {
	var errs []error
	if err := write(filepath.Join(c.dir, "duty_cycle"), "0"); err != nil {
		errs = append(errs, fmt.Errorf("zero duty cycle: %w", err))
	}
	if err := write(filepath.Join(c.dir, "enable"), "0"); err != nil {
		errs = append(errs, fmt.Errorf("disable: %w", err))
	}
	if c.exported {
		if err := write(filepath.Join(c.chipDir, "unexport"), strconv.Itoa(c.channel)); err != nil {
			errs = append(errs, fmt.Errorf("unexport: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func write(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
