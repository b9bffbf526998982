package sensor

// FakeChannel is a test double that returns scripted conversion values.
type FakeChannel struct {
	// Values contains scripted readings. Each Read consumes the next value;
	// when exhausted, the last value repeats (continuous conversion keeps
	// returning the latest result).
	Values []int32

	// ReadHook, if set, is invoked before each Read returns. Tests use it to
	// advance a simulated clock and provoke tick overruns.
	ReadHook func()

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeChannel creates a FakeChannel with the given values.
func NewFakeChannel(values ...int32) *FakeChannel {
	return &FakeChannel{Values: values}
}

// Read returns the next scripted value.
func (f *FakeChannel) Read() int32 {
	if f.ReadHook != nil {
		f.ReadHook()
	}
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v
}

// Close marks the channel as closed.
func (f *FakeChannel) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first scripted value.
func (f *FakeChannel) Reset() {
	f.index = 0
	f.Closed = false
}
