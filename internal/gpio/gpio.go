// Package gpio provides the motion input and power relay output with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// MotionSensor reads a PIR motion detector.
type MotionSensor interface {
	// Motion returns true if motion is detected at this instant.
	Motion() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Relay drives the general power relay.
type Relay interface {
	// SetPower switches the relay. Setting the current state again is a no-op.
	SetPower(on bool) error

	// Close switches the relay off and releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinMotion = 26 // PIR output, active high
	DefaultPinRelay  = 5  // Relay coil driver, active high
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"
