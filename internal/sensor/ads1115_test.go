package sensor

import "testing"

func TestConfigWordContinuousMode(t *testing.T) {
	// MODE bit (8) must be 0 for continuous conversion regardless of settings.
	for _, rate := range []Rate{Rate8, Rate128, Rate475, Rate860} {
		for _, gain := range []Gain{Gain6V144, Gain4V096, Gain0V256} {
			word := configWord(rate, gain)
			if word&(1<<8) != 0 {
				t.Errorf("rate=%d gain=%d: MODE bit set, expected continuous", rate, gain)
			}
		}
	}
}

func TestConfigWordFields(t *testing.T) {
	word := configWord(Rate860, Gain4V096)

	if mux := (word >> 12) & 0x7; mux != 0x4 {
		t.Errorf("mux: expected 0x4 (AIN0/GND), got %#x", mux)
	}
	if pga := (word >> 9) & 0x7; pga != 0x1 {
		t.Errorf("pga: expected 0x1 (±4.096V), got %#x", pga)
	}
	if dr := (word >> 5) & 0x7; dr != 0x7 {
		t.Errorf("data rate: expected 0x7 (860sps), got %#x", dr)
	}
	if comp := word & 0x3; comp != 0x3 {
		t.Errorf("comparator: expected disabled (0x3), got %#x", comp)
	}
}

func TestConfigWordDataRates(t *testing.T) {
	cases := []struct {
		rate Rate
		bits uint16
	}{
		{Rate8, 0x0},
		{Rate16, 0x1},
		{Rate32, 0x2},
		{Rate64, 0x3},
		{Rate128, 0x4},
		{Rate250, 0x5},
		{Rate475, 0x6},
		{Rate860, 0x7},
	}
	for _, c := range cases {
		word := configWord(c.rate, Gain4V096)
		if dr := (word >> 5) & 0x7; dr != c.bits {
			t.Errorf("rate %d: expected dr bits %#x, got %#x", c.rate, c.bits, dr)
		}
	}
}

func TestFakeChannelScriptedValues(t *testing.T) {
	f := NewFakeChannel(100, -200, 32767)

	for i, want := range []int32{100, -200, 32767} {
		if got := f.Read(); got != want {
			t.Errorf("read %d: expected %d, got %d", i, want, got)
		}
	}

	// Exhausted: last value repeats.
	if got := f.Read(); got != 32767 {
		t.Errorf("repeat read: expected 32767, got %d", got)
	}
}

func TestFakeChannelReadHook(t *testing.T) {
	f := NewFakeChannel(1)
	calls := 0
	f.ReadHook = func() { calls++ }

	f.Read()
	f.Read()

	if calls != 2 {
		t.Errorf("expected 2 hook calls, got %d", calls)
	}
}
