// Package relay owns the physical ignition relay output and its confirmation
// input. The relay is de-energized at boot and outside sessions; once opened
// by the failsafe it stays open until a fresh arm sequence in a new session.
package relay

import (
	"fmt"

	"github.com/hollis/tms-stand/internal/diag"
)

// Lines is the subset of GPIO access the controller needs.
type Lines interface {
	Confirm() (bool, error)
	SetRelay(on bool) error
}

// Controller drives the relay and evaluates the failsafe condition.
type Controller struct {
	lines     Lines
	energized bool
	tripped   bool
}

// New creates a Controller and drives the relay de-energized.
func New(lines Lines) (*Controller, error) {
	c := &Controller{lines: lines}
	if err := lines.SetRelay(false); err != nil {
		return nil, fmt.Errorf("relay to safe state: %w", err)
	}
	return c, nil
}

// Arm energizes the relay, enabling the ignition current path. Only called
// after a confirmed trigger; clears any previous failsafe trip.
func (c *Controller) Arm() error {
	if err := c.lines.SetRelay(true); err != nil {
		return fmt.Errorf("energize relay: %w", err)
	}
	c.energized = true
	c.tripped = false
	return nil
}

// Disarm de-energizes the relay. Idempotent with a failsafe-triggered
// de-energization: calling it when already open has no observable effect.
func (c *Controller) Disarm() error {
	if !c.energized {
		return nil
	}
	if err := c.lines.SetRelay(false); err != nil {
		return fmt.Errorf("de-energize relay: %w", err)
	}
	c.energized = false
	return nil
}

// CheckFailsafe de-energizes the relay if the confirmation input reads
// de-asserted. Non-blocking; evaluated once per sampling tick, which bounds
// the safety reaction latency to one tick period. Returns true if the relay
// was opened by this call.
func (c *Controller) CheckFailsafe() (bool, error) {
	if !c.energized {
		return false, nil
	}
	ok, err := c.lines.Confirm()
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	if ok {
		return false, nil
	}

	diag.Logf("relay: confirmation lost, opening relay")
	if err := c.lines.SetRelay(false); err != nil {
		return false, fmt.Errorf("failsafe de-energize: %w", err)
	}
	c.energized = false
	c.tripped = true
	return true, nil
}

// ConfirmAsserted reads the confirmation input level.
func (c *Controller) ConfirmAsserted() (bool, error) {
	return c.lines.Confirm()
}

// Energized reports whether the relay is currently energized.
func (c *Controller) Energized() bool {
	return c.energized
}

// Tripped reports whether the failsafe opened the relay since the last Arm.
func (c *Controller) Tripped() bool {
	return c.tripped
}
