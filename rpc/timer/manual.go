package timer

import (
	"sort"
	"sync"
	"time"
)

// ManualFactory is a deterministic IFactory for tests. Time only moves when
// Advance is called; due callbacks run synchronously on the calling goroutine.
type ManualFactory struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualHandle
}

type manualHandle struct {
	factory  *ManualFactory
	deadline time.Duration
	seq      uint64 // keeps scheduling order stable for equal deadlines
	fn       func()
	state    uint32 // guarded by factory.mu
}

// NewManualFactory creates a manual timer factory starting at time zero
func NewManualFactory() *ManualFactory {
	return &ManualFactory{}
}

// Schedule implements IFactory
func (m *ManualFactory) Schedule(d time.Duration, fn func()) IHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	h := &manualHandle{
		factory:  m,
		deadline: m.now + d,
		seq:      m.seq,
		fn:       fn,
	}
	m.timers = append(m.timers, h)
	return h
}

// Advance moves the clock forward by d and runs every callback that became due,
// in deadline order. Callbacks may schedule or cancel other timers.
func (m *ManualFactory) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now

	var due, keep []*manualHandle
	for _, h := range m.timers {
		if h.deadline <= now {
			h.state = fired
			due = append(due, h)
		} else {
			keep = append(keep, h)
		}
	}
	m.timers = keep
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline < due[j].deadline
	})
	for _, h := range due {
		h.fn()
	}
}

// Pending returns the number of armed timers
func (m *ManualFactory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Now returns the elapsed manual time
func (m *ManualFactory) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (h *manualHandle) Cancel() bool {
	m := h.factory
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.state != armed {
		return false
	}
	h.state = cancelled
	for i, t := range m.timers {
		if t == h {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			break
		}
	}
	return true
}
