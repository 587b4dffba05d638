package base

import (
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/timer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"sync"
	"sync/atomic"
	"time"
)

// requestState is the lifecycle of a timedRequest
type requestState = uint32

const (
	stateCreated requestState = iota
	statePending
	stateCompleted
	stateTimedOut
	stateFailed
)

// timedRequest is one queued request plus its deadline.
// The state field is the single arbiter of the reply / deadline / failure race:
// only the goroutine that moves it into a terminal state invokes the handler.
type timedRequest struct {
	op        common.OpCode
	frame     []byte // encoded frame, written as is
	timeout   time.Duration
	handler   transport.ResponseHandler
	submitted time.Time

	state atomic.Uint32

	deadlineMu sync.Mutex
	deadline   timer.IHandle

	// onExpire runs after a timeout won the race and before the handler is called
	onExpire func()
}

func newTimedRequest(op common.OpCode, frame []byte, timeout time.Duration, handler transport.ResponseHandler) *timedRequest {
	return &timedRequest{
		op:        op,
		frame:     frame,
		timeout:   timeout,
		handler:   handler,
		submitted: time.Now(),
	}
}

// start moves the request to pending and arms its deadline.
// It returns false if the request was resolved before it could be started.
func (r *timedRequest) start(timers timer.IFactory, onExpire func()) bool {
	r.onExpire = onExpire
	if !r.state.CompareAndSwap(stateCreated, statePending) {
		return false
	}

	h := timers.Schedule(r.timeout, r.expire)

	r.deadlineMu.Lock()
	r.deadline = h
	r.deadlineMu.Unlock()

	// A concurrent fail (e.g. Close) may have won before the handle was stored
	if r.isResolved() {
		h.Cancel()
	}
	return true
}

// complete resolves the request with a decoded reply
func (r *timedRequest) complete(op common.OpCode, payload []byte) bool {
	if !r.transition(stateCompleted) {
		return false
	}
	r.handler(op, payload, nil)
	return true
}

// fail resolves the request with an error
func (r *timedRequest) fail(err error) bool {
	if !r.transition(stateFailed) {
		return false
	}
	r.handler(0, nil, err)
	return true
}

// expire is the deadline callback
func (r *timedRequest) expire() {
	if !r.transition(stateTimedOut) {
		return
	}
	if r.onExpire != nil {
		r.onExpire()
	}
	r.handler(0, nil, common.NewError(common.KindTimeout,
		"no reply for "+r.op.String()+" within "+r.timeout.String(), nil))
}

// transition moves the request from created/pending into the terminal state to.
// It returns false if another event already resolved the request.
func (r *timedRequest) transition(to requestState) bool {
	for {
		s := r.state.Load()
		if s != stateCreated && s != statePending {
			return false
		}
		if r.state.CompareAndSwap(s, to) {
			break
		}
	}

	// The deadline fired itself, nothing to cancel
	if to != stateTimedOut {
		r.deadlineMu.Lock()
		h := r.deadline
		r.deadlineMu.Unlock()
		if h != nil {
			h.Cancel()
		}
	}
	return true
}

// isResolved reports whether the request reached a terminal state
func (r *timedRequest) isResolved() bool {
	s := r.state.Load()
	return s != stateCreated && s != statePending
}
