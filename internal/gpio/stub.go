//go:build !linux

package gpio

import "errors"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(chipName string, pins Pins, onEdge func()) (*RealLines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Trigger is not implemented on non-Linux platforms.
func (r *RealLines) Trigger() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Confirm is not implemented on non-Linux platforms.
func (r *RealLines) Confirm() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// SetRelay is not implemented on non-Linux platforms.
func (r *RealLines) SetRelay(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}
