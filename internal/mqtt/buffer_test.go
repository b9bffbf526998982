package mqtt

import (
	"fmt"
	"testing"

	"github.com/hollis/tms-stand/internal/diag"
)

func init() {
	diag.SetLogger(nil)
}

func msg(n int) bufferedMsg {
	return bufferedMsg{topic: Topic, payload: []byte(fmt.Sprintf("m%d", n)), qos: 1}
}

func TestRingBufferFIFO(t *testing.T) {
	r := newRingBuffer(4)

	for i := 0; i < 3; i++ {
		r.push(msg(i))
	}
	if r.len() != 3 {
		t.Fatalf("expected 3 buffered, got %d", r.len())
	}

	drained := r.drainAll()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained, got %d", len(drained))
	}
	for i, m := range drained {
		if string(m.payload) != fmt.Sprintf("m%d", i) {
			t.Errorf("message %d: expected m%d, got %s", i, i, m.payload)
		}
	}
	if r.len() != 0 {
		t.Error("drain must empty the buffer")
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)

	for i := 0; i < 5; i++ {
		r.push(msg(i))
	}
	if r.len() != 3 {
		t.Fatalf("expected capacity 3, got %d", r.len())
	}

	drained := r.drainAll()
	// Oldest two (m0, m1) were overwritten.
	want := []string{"m2", "m3", "m4"}
	for i, w := range want {
		if string(drained[i].payload) != w {
			t.Errorf("message %d: expected %s, got %s", i, w, drained[i].payload)
		}
	}
}

func TestRingBufferDrainEmpty(t *testing.T) {
	r := newRingBuffer(2)
	if got := r.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %v", got)
	}
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	r := newRingBuffer(2)

	r.push(msg(0))
	r.drainAll()

	r.push(msg(1))
	r.push(msg(2))
	drained := r.drainAll()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained, got %d", len(drained))
	}
	if string(drained[0].payload) != "m1" || string(drained[1].payload) != "m2" {
		t.Errorf("unexpected order: %s, %s", drained[0].payload, drained[1].payload)
	}
}
