package timer

import (
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definitions for dependency injection
// --------------------------------------------------------------------------

// IHandle represents one scheduled callback
type IHandle interface {
	// Cancel prevents the callback from running.
	// It returns true iff the callback had not started and now never will.
	// It returns false iff the callback has already started (or finished).
	Cancel() bool
}

// IFactory schedules callbacks. Implementations must honor the IHandle.Cancel contract.
type IFactory interface {
	// Schedule runs fn once after d unless the returned handle is cancelled first
	Schedule(d time.Duration, fn func()) IHandle
}

// --------------------------------------------------------------------------
// Wall clock implementation
// --------------------------------------------------------------------------

const (
	armed uint32 = iota
	fired
	cancelled
)

// NewWallClockFactory returns a factory backed by time.AfterFunc
func NewWallClockFactory() IFactory {
	return wallClockFactory{}
}

type wallClockFactory struct{}

type wallClockHandle struct {
	state atomic.Uint32
	timer *time.Timer
}

func (wallClockFactory) Schedule(d time.Duration, fn func()) IHandle {
	h := &wallClockHandle{}
	h.timer = time.AfterFunc(d, func() {
		// Whoever moves the handle out of armed first decides between fire and cancel
		if h.state.CompareAndSwap(armed, fired) {
			fn()
		}
	})
	return h
}

func (h *wallClockHandle) Cancel() bool {
	if !h.state.CompareAndSwap(armed, cancelled) {
		return false
	}
	h.timer.Stop()
	return true
}
