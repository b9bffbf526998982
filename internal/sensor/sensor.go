// Package sensor wraps the two analog acquisition channels (load cell and
// pressure transducer). Each channel runs in continuous-conversion mode so a
// read never waits for a conversion; it returns the most recently completed
// result.
package sensor

// Channel reads the last completed conversion of one analog input.
type Channel interface {
	// Read returns the most recent conversion result. It never blocks and
	// surfaces no error; after a failed handshake the values are undefined.
	Read() int32

	// Close releases the channel.
	Close() error
}

// Rate selects the converter data rate in samples per second.
type Rate int

// Supported ADS1115 data rates.
const (
	Rate8   Rate = 8
	Rate16  Rate = 16
	Rate32  Rate = 32
	Rate64  Rate = 64
	Rate128 Rate = 128
	Rate250 Rate = 250
	Rate475 Rate = 475
	Rate860 Rate = 860
)

// Gain selects the programmable gain amplifier full-scale range.
type Gain int

// Supported ADS1115 full-scale ranges.
const (
	Gain6V144 Gain = iota // ±6.144 V
	Gain4V096             // ±4.096 V
	Gain2V048             // ±2.048 V
	Gain1V024             // ±1.024 V
	Gain0V512             // ±0.512 V
	Gain0V256             // ±0.256 V
)
