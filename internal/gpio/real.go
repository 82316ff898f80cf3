//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealMotion reads a PIR sensor from actual hardware using Linux GPIO
// character device.
type RealMotion struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealMotion requests the PIR input line.
func NewRealMotion(chipName string, pin int) (*RealMotion, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-down keeps the line low when the PIR module is disconnected,
	// which reads as "no motion".
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request motion pin %d: %w", pin, err)
	}

	return &RealMotion{chip: chip, line: line}, nil
}

// Motion returns true while the PIR output is high.
func (m *RealMotion) Motion() (bool, error) {
	v, err := m.line.Value()
	if err != nil {
		return false, fmt.Errorf("read motion pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
func (m *RealMotion) Close() error {
	var errs []error
	if m.line != nil {
		if err := m.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close motion pin: %w", err))
		}
	}
	if m.chip != nil {
		if err := m.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealRelay drives the power relay from actual hardware.
type RealRelay struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	on    bool
	known bool
}

// NewRealRelay requests the relay output line, initially off.
func NewRealRelay(chipName string, pin int) (*RealRelay, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
	}

	return &RealRelay{chip: chip, line: line, known: true}, nil
}

// SetPower drives the relay line. Repeating the current state skips the
// write.
func (r *RealRelay) SetPower(on bool) error {
	if r.known && r.on == on {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		r.known = false
		return fmt.Errorf("set relay: %w", err)
	}
	r.on = on
	r.known = true
	return nil
}

// Close switches the relay off, returns the pin to an input with
// pull-down (matching Pi boot defaults) and releases GPIO resources.
func (r *RealRelay) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch relay off: %w", err))
		}
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure relay pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
