package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWallClockFires(t *testing.T) {
	f := NewWallClockFactory()
	done := make(chan struct{})
	h := f.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Timer did not fire")
	}

	if h.Cancel() {
		t.Errorf("Cancel after firing must return false")
	}
}

func TestWallClockCancel(t *testing.T) {
	f := NewWallClockFactory()
	var calls atomic.Int32
	h := f.Schedule(20*time.Millisecond, func() { calls.Add(1) })

	if !h.Cancel() {
		t.Fatalf("Cancel before firing must return true")
	}
	if h.Cancel() {
		t.Errorf("Second Cancel must return false")
	}

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("Cancelled callback ran %d times", calls.Load())
	}
}

// TestWallClockCancelRace checks that exactly one of fire and cancel wins
func TestWallClockCancelRace(t *testing.T) {
	f := NewWallClockFactory()
	for i := 0; i < 200; i++ {
		var calls atomic.Int32
		h := f.Schedule(time.Duration(i%3)*time.Microsecond, func() { calls.Add(1) })
		time.Sleep(time.Duration(i%5) * time.Microsecond)
		cancelled := h.Cancel()

		time.Sleep(200 * time.Microsecond)
		if cancelled && calls.Load() != 0 {
			t.Fatalf("Iteration %d: Cancel returned true but the callback ran", i)
		}
		if !cancelled {
			// The callback started before Cancel, wait for it to be observable
			deadline := time.Now().Add(time.Second)
			for calls.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(100 * time.Microsecond)
			}
			if calls.Load() != 1 {
				t.Fatalf("Iteration %d: Cancel returned false but the callback ran %d times", i, calls.Load())
			}
		}
	}
}

func TestManualAdvance(t *testing.T) {
	m := NewManualFactory()
	var order []int

	m.Schedule(30*time.Millisecond, func() { order = append(order, 3) })
	m.Schedule(10*time.Millisecond, func() { order = append(order, 1) })
	m.Schedule(20*time.Millisecond, func() { order = append(order, 2) })

	if m.Pending() != 3 {
		t.Fatalf("Expected 3 pending timers, got %d", m.Pending())
	}

	m.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("Expected only the first timer to fire, got %v", order)
	}

	m.Advance(100 * time.Millisecond)
	if len(order) != 3 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Timers fired out of order: %v", order)
	}
	if m.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", m.Pending())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManualFactory()
	fired := false
	h := m.Schedule(time.Second, func() { fired = true })

	if !h.Cancel() {
		t.Fatalf("Cancel of an armed timer must return true")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Errorf("Cancelled timer fired")
	}

	h2 := m.Schedule(time.Second, func() {})
	m.Advance(time.Second)
	if h2.Cancel() {
		t.Errorf("Cancel of a fired timer must return false")
	}
}

func TestManualCallbackCancelsOther(t *testing.T) {
	m := NewManualFactory()
	var second IHandle
	secondFired := false

	m.Schedule(time.Millisecond, func() {
		if !second.Cancel() {
			t.Errorf("Second timer should still be cancellable")
		}
	})
	second = m.Schedule(time.Hour, func() { secondFired = true })

	m.Advance(time.Millisecond)
	m.Advance(2 * time.Hour)
	if secondFired {
		t.Errorf("Timer cancelled from another callback fired")
	}
}
