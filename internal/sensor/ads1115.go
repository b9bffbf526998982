package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/hollis/tms-stand/internal/diag"
)

// ADS1115 register pointers.
const (
	pointerConv   = 0x00
	pointerConfig = 0x01
)

// OpenBus initializes the periph host and opens the named I2C bus.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	return bus, nil
}

// ADS1115 is one converter on the shared I2C bus, configured once for
// continuous conversion on AIN0 against ground. Reads return the conversion
// register without waiting.
type ADS1115 struct {
	dev    *i2c.Dev
	name   string
	last   int32
	failed bool
}

// NewADS1115 configures the converter at addr for continuous conversion and
// verifies the handshake by reading the config register back. A handshake
// failure is returned to the caller (the boot health report); the channel
// remains usable but its readings are undefined.
func NewADS1115(bus i2c.Bus, addr uint16, name string, rate Rate, gain Gain) (*ADS1115, error) {
	a := &ADS1115{
		dev:  &i2c.Dev{Addr: addr, Bus: bus},
		name: name,
	}

	word := configWord(rate, gain)
	msb, lsb := byte(word>>8), byte(word&0xFF)
	if err := a.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return a, fmt.Errorf("%s: write config: %w", name, err)
	}

	readBuf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConfig}, readBuf); err != nil {
		return a, fmt.Errorf("%s: read back config: %w", name, err)
	}
	got := uint16(readBuf[0])<<8 | uint16(readBuf[1])
	// Bit 15 reads back as conversion status, not the written OS bit.
	if got&0x7FFF != word&0x7FFF {
		return a, fmt.Errorf("%s: config mismatch: wrote %#04x, read %#04x", name, word, got)
	}

	return a, nil
}

// Read returns the last completed conversion. On a bus error the previous
// value is returned; the error is logged once per transition into the failed
// state.
func (a *ADS1115) Read() int32 {
	readBuf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConv}, readBuf); err != nil {
		if !a.failed {
			diag.Logf("sensor %s: read conversion: %v", a.name, err)
			a.failed = true
		}
		return a.last
	}
	if a.failed {
		diag.Logf("sensor %s: reads recovered", a.name)
		a.failed = false
	}
	a.last = int32(int16(uint16(readBuf[0])<<8 | uint16(readBuf[1])))
	return a.last
}

// Close releases the channel. The bus is shared and closed by the caller.
func (a *ADS1115) Close() error { return nil }

// configWord builds the ADS1115 config register value: AIN0/GND mux,
// the given PGA and data rate, MODE=0 (continuous), comparator disabled.
func configWord(rate Rate, gain Gain) uint16 {
	var dr uint16
	switch rate {
	case Rate8:
		dr = 0x0
	case Rate16:
		dr = 0x1
	case Rate32:
		dr = 0x2
	case Rate64:
		dr = 0x3
	case Rate128:
		dr = 0x4
	case Rate250:
		dr = 0x5
	case Rate475:
		dr = 0x6
	case Rate860:
		dr = 0x7
	default:
		dr = 0x7
	}

	var pga uint16
	switch gain {
	case Gain6V144:
		pga = 0x0
	case Gain4V096:
		pga = 0x1
	case Gain2V048:
		pga = 0x2
	case Gain1V024:
		pga = 0x3
	case Gain0V512:
		pga = 0x4
	case Gain0V256:
		pga = 0x5
	default:
		pga = 0x1
	}

	var config uint16
	config |= 0x4 << 12 // MUX: AIN0 vs GND
	config |= pga << 9
	// MODE bit 8 stays 0: continuous conversion
	config |= dr << 5
	config |= 0x3 // comparator disabled
	return config
}
