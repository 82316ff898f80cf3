//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealMotion is not available on non-Linux platforms.
type RealMotion struct{}

// NewRealMotion returns an error on non-Linux platforms.
func NewRealMotion(chipName string, pin int) (*RealMotion, error) {
	return nil, errUnsupported
}

// Motion is not implemented on non-Linux platforms.
func (m *RealMotion) Motion() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (m *RealMotion) Close() error {
	return nil
}

// RealRelay is not available on non-Linux platforms.
type RealRelay struct{}

// NewRealRelay returns an error on non-Linux platforms.
func NewRealRelay(chipName string, pin int) (*RealRelay, error) {
	return nil, errUnsupported
}

// SetPower is not implemented on non-Linux platforms.
func (r *RealRelay) SetPower(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealRelay) Close() error {
	return nil
}
