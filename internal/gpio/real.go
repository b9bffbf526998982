//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives actual hardware using the Linux GPIO character device.
type RealLines struct {
	chip    *gpiocdev.Chip
	trigger *gpiocdev.Line
	confirm *gpiocdev.Line
	relay   *gpiocdev.Line
}

// NewRealLines requests the three stand lines from the named chip. The
// control-signal line is requested with rising-edge event delivery; onEdge is
// invoked from the event goroutine for each rising edge and must not block
// (the caller performs a non-blocking channel send).
func NewRealLines(chipName string, pins Pins, onEdge func()) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Inputs use pull-down to match Pi boot defaults; the external control
	// box and the relay confirmation loop both drive the lines high when
	// asserted.
	trigger, err := chip.RequestLine(pins.Trigger,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { onEdge() }))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", pins.Trigger, err)
	}

	confirm, err := chip.RequestLine(pins.Confirm, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		trigger.Close()
		chip.Close()
		return nil, fmt.Errorf("request confirm pin %d: %w", pins.Confirm, err)
	}

	// Relay output starts de-energized.
	relay, err := chip.RequestLine(pins.Relay, gpiocdev.AsOutput(0))
	if err != nil {
		confirm.Close()
		trigger.Close()
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pins.Relay, err)
	}

	return &RealLines{
		chip:    chip,
		trigger: trigger,
		confirm: confirm,
		relay:   relay,
	}, nil
}

// Trigger returns the current level of the control-signal line.
func (r *RealLines) Trigger() (bool, error) {
	v, err := r.trigger.Value()
	if err != nil {
		return false, fmt.Errorf("read trigger pin: %w", err)
	}
	return v != 0, nil
}

// Confirm returns the current level of the relay-circuit confirmation line.
func (r *RealLines) Confirm() (bool, error) {
	v, err := r.confirm.Value()
	if err != nil {
		return false, fmt.Errorf("read confirm pin: %w", err)
	}
	return v != 0, nil
}

// SetRelay drives the relay output.
func (r *RealLines) SetRelay(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.relay.SetValue(v); err != nil {
		return fmt.Errorf("set relay pin: %w", err)
	}
	return nil
}

// Close drives the relay low, reconfigures the inputs to Pi boot defaults
// (input with pull-down) and releases the chip. Driving the relay low first
// guarantees the ignition path is open when the daemon exits.
func (r *RealLines) Close() error {
	var errs []error

	if r.relay != nil {
		if err := r.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("relay low: %w", err))
		}
		if err := r.relay.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure relay pin: %w", err))
		}
		if err := r.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if r.confirm != nil {
		if err := r.confirm.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close confirm pin: %w", err))
		}
	}
	if r.trigger != nil {
		if err := r.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
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
