package relay

import (
	"testing"

	"github.com/hollis/tms-stand/internal/diag"
	"github.com/hollis/tms-stand/internal/gpio"
)

func init() {
	diag.SetLogger(nil)
}

func TestRelayLowAtBoot(t *testing.T) {
	lines := gpio.NewFakeLines()
	lines.SetRelay(true) // pretend the pin floated high before we took over

	c, err := New(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lines.Relay() {
		t.Error("relay must be driven low when the controller takes over")
	}
	if c.Energized() {
		t.Error("controller must report de-energized at boot")
	}
}

func TestArmDisarm(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)

	if err := c.Arm(); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if !lines.Relay() || !c.Energized() {
		t.Error("relay should be energized after Arm")
	}

	if err := c.Disarm(); err != nil {
		t.Fatalf("disarm: %v", err)
	}
	if lines.Relay() || c.Energized() {
		t.Error("relay should be de-energized after Disarm")
	}
}

func TestDisarmIdempotent(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)

	c.Arm()
	c.Disarm()
	writes := len(lines.RelaySets)

	// Second disarm must have no observable effect.
	if err := c.Disarm(); err != nil {
		t.Fatalf("second disarm: %v", err)
	}
	if len(lines.RelaySets) != writes {
		t.Error("disarm when already de-energized must not write the pin")
	}
}

func TestFailsafeTripsOnLostConfirmation(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)

	lines.SetConfirm(true)
	c.Arm()

	// Confirmation present: no trip.
	tripped, err := c.CheckFailsafe()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if tripped {
		t.Error("failsafe must not trip while confirmation is asserted")
	}

	// Confirmation lost: relay opens immediately.
	lines.SetConfirm(false)
	tripped, err = c.CheckFailsafe()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !tripped {
		t.Error("failsafe should trip when confirmation drops")
	}
	if lines.Relay() || c.Energized() {
		t.Error("relay should be open after a failsafe trip")
	}
	if !c.Tripped() {
		t.Error("Tripped should report the failsafe trip")
	}
}

func TestFailsafeNeverReEnergizes(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)

	lines.SetConfirm(false)
	c.Arm()
	c.CheckFailsafe()

	// Confirmation returning must not close the relay again.
	lines.SetConfirm(true)
	tripped, _ := c.CheckFailsafe()
	if tripped {
		t.Error("check on an open relay must not trip again")
	}
	if lines.Relay() {
		t.Error("relay must stay open until a fresh arm sequence")
	}
}

func TestFailsafeInertWhenDisarmed(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)
	writes := len(lines.RelaySets)

	lines.SetConfirm(false)
	tripped, err := c.CheckFailsafe()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if tripped {
		t.Error("failsafe on a de-energized relay must report no trip")
	}
	if len(lines.RelaySets) != writes {
		t.Error("failsafe on a de-energized relay must not touch the pin")
	}
}

func TestArmClearsTrip(t *testing.T) {
	lines := gpio.NewFakeLines()
	c, _ := New(lines)

	lines.SetConfirm(false)
	c.Arm()
	c.CheckFailsafe()
	if !c.Tripped() {
		t.Fatal("expected trip")
	}

	// Fresh arm sequence in a new session clears the trip state.
	lines.SetConfirm(true)
	c.Arm()
	if c.Tripped() {
		t.Error("Arm should clear the previous trip")
	}
	if !lines.Relay() {
		t.Error("relay should be energized after re-arm")
	}
}
