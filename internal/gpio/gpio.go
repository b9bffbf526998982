// Package gpio provides access to the three test-stand lines with hardware
// abstraction: the control-signal input (rising-edge events), the relay-circuit
// confirmation input, and the relay drive output.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Lines reads the two inputs and drives the relay output.
type Lines interface {
	// Trigger returns the current level of the control-signal line.
	Trigger() (bool, error)

	// Confirm returns the current level of the relay-circuit confirmation line.
	Confirm() (bool, error)

	// SetRelay drives the relay output (true = energized).
	SetRelay(on bool) error

	// Close releases GPIO resources. The relay output is driven low first.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinTrigger = 17 // external control-signal input
	DefaultPinConfirm = 27 // relay-circuit continuity input
	DefaultPinRelay   = 22 // ignition relay drive output
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Pins names the three lines requested from the chip.
type Pins struct {
	Trigger int
	Confirm int
	Relay   int
}

// DefaultPins returns the standard pin assignment.
func DefaultPins() Pins {
	return Pins{
		Trigger: DefaultPinTrigger,
		Confirm: DefaultPinConfirm,
		Relay:   DefaultPinRelay,
	}
}
