package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/codec"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/timer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// readChunkSize is the size of a single socket read
const readChunkSize = 32 * 1024

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint within timeout
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// ConnState is the state of the single client connection
type ConnState uint32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFaulted
)

// String returns the string representation of a ConnState.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// clientConnection is one live socket plus its receive buffer
type clientConnection struct {
	conn    net.Conn
	decoder *codec.Decoder
	readBuf []byte
	closed  atomic.Bool
}

// clientTransport serializes all requests onto one connection.
// The protocol has no correlation ids, so exactly one request is in flight at a
// time and replies are matched to requests purely by order.
type clientTransport struct {
	connector IClientConnector
	timers    timer.IFactory
	config    common.ClientConfig
	metrics   *clientMetrics

	mu       sync.Mutex // protects everything below
	queue    []*timedRequest
	inFlight *timedRequest
	conn     *clientConnection
	started  bool
	closed   bool

	state atomic.Uint32 // ConnState
	// set while the worker runs a completion handler, Close must not wait for
	// the worker when it is called from inside that handler
	resolving atomic.Bool
	wakeCh    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector.
// A nil timer factory selects wall clock timers.
func NewBaseClientTransport(connector IClientConnector, timers timer.IFactory) transport.IRPCClientTransport {
	return newClientTransport(connector, timers)
}

func newClientTransport(connector IClientConnector, timers timer.IFactory) *clientTransport {
	if timers == nil {
		timers = timer.NewWallClockFactory()
	}
	t := &clientTransport{
		connector: connector,
		timers:    timers,
		wakeCh:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	t.metrics = newClientMetrics(connector.GetName(), func() float64 {
		return float64(t.queueLen())
	})
	return t
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return common.NewError(common.KindClosed, "transport is closed", nil)
	}
	if t.started {
		return fmt.Errorf("transport is already connected")
	}

	t.config = config
	t.started = true

	Logger.Infof("Using %s transport to %s (timeout %s)",
		t.connector.GetName(), config.Transport.Endpoint, config.DefaultTimeout())

	// The worker dials lazily when the first request is dequeued
	go t.drain()
	return nil
}

func (t *clientTransport) Send(op common.OpCode, payload []byte, timeout time.Duration, handler transport.ResponseHandler) {
	t.metrics.submitted.Inc()
	submitted := time.Now()

	// Wrap the handler so every outcome is counted exactly once
	h := func(respOp common.OpCode, resp []byte, err error) {
		t.metrics.observe(submitted, err)
		handler(respOp, resp, err)
	}

	t.mu.Lock()
	if t.closed || !t.started {
		t.mu.Unlock()
		h(0, nil, common.NewError(common.KindClosed, "transport is not connected", nil))
		return
	}

	if timeout <= 0 {
		timeout = t.config.DefaultTimeout()
	}

	frame, err := codec.EncodeLimit(op, payload, t.config.MaxMessageSize())
	if err != nil {
		t.mu.Unlock()
		h(0, nil, err)
		return
	}

	t.queue = append(t.queue, newTimedRequest(op, frame, timeout, h))
	t.mu.Unlock()

	// Wake the worker if it is idle
	select {
	case t.wakeCh <- struct{}{}:
	default:
	}
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	started := t.started

	queued := t.queue
	t.queue = nil
	inFlight := t.inFlight
	conn := t.conn
	t.mu.Unlock()

	closedErr := common.NewError(common.KindClosed, "transport closed", nil)

	// Resolve the in-flight request before tearing down its socket so the
	// worker's read error can not claim it first
	if inFlight != nil {
		inFlight.fail(closedErr)
	}
	if conn != nil {
		t.closeConnection(conn)
	}
	for _, req := range queued {
		req.fail(closedErr)
	}

	close(t.stopCh)
	if started && !t.resolving.Load() {
		<-t.doneCh
	}

	Logger.Infof("Closed %s transport (%d queued requests cancelled)", t.connector.GetName(), len(queued))
	return nil
}

// --------------------------------------------------------------------------
// Public helpers (not part of the interface)
// --------------------------------------------------------------------------

// State returns the current state of the connection
func (t *clientTransport) State() ConnState {
	return ConnState(t.state.Load())
}

// WriteMetrics writes the transport metrics in Prometheus text format
func (t *clientTransport) WriteMetrics(w io.Writer) {
	t.metrics.write(w)
}

// --------------------------------------------------------------------------
// Drain loop
// --------------------------------------------------------------------------

// drain is the single worker that dispatches queued requests one at a time
func (t *clientTransport) drain() {
	defer close(t.doneCh)

	for {
		req := t.dequeue()
		if req == nil {
			return
		}
		t.dispatch(req)

		t.mu.Lock()
		t.inFlight = nil
		t.mu.Unlock()
	}
}

// dequeue blocks until a request is available or the transport is closed
func (t *clientTransport) dequeue() *timedRequest {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil
		}
		if len(t.queue) > 0 {
			req := t.queue[0]
			t.queue[0] = nil
			t.queue = t.queue[1:]
			t.inFlight = req
			t.mu.Unlock()
			return req
		}
		t.mu.Unlock()

		select {
		case <-t.wakeCh:
		case <-t.stopCh:
		}
	}
}

// dispatch runs one complete write-then-read exchange for req
func (t *clientTransport) dispatch(req *timedRequest) {
	conn, err := t.ensureConnection(req.timeout)
	if err != nil {
		// Only this request fails, the next one gets its own connect attempt
		t.resolve(func() bool {
			return req.fail(common.NewError(common.KindConnectionFailed,
				"failed to connect to "+t.config.Transport.Endpoint, err))
		})
		return
	}

	// Arm the deadline; on expiry the socket is presumed desynchronized and dropped
	if !req.start(t.timers, func() { t.discard(conn, "request timed out") }) {
		return
	}

	if _, err := conn.conn.Write(req.frame); err != nil {
		t.resolve(func() bool {
			return req.fail(common.NewError(common.KindTransportError, "failed to write request", err))
		})
		t.discard(conn, "write failed")
		return
	}

	frame, err := t.readReply(conn)
	if err != nil {
		kind := common.KindTransportError
		if common.KindOf(err) == common.KindMalformedFrame {
			kind = common.KindMalformedFrame
		}
		// A no-op if the deadline (or Close) already resolved the request
		t.resolve(func() bool { return req.fail(common.NewError(kind, "failed to read reply", err)) })
		t.discard(conn, "read failed: "+err.Error())
		return
	}

	if !t.resolve(func() bool { return req.complete(frame.Op, frame.Payload) }) {
		// The reply lost the race against the deadline, the socket is already gone
		t.discard(conn, "late reply")
		return
	}

	// Bytes beyond one reply can not belong to any request
	if conn.decoder.Buffered() > 0 {
		Logger.Warningf("Discarding connection with %d unexpected trailing bytes", conn.decoder.Buffered())
		t.discard(conn, "unexpected trailing bytes")
	}
}

// resolve runs fn, which may call a completion handler, on the worker
func (t *clientTransport) resolve(fn func() bool) bool {
	t.resolving.Store(true)
	defer t.resolving.Store(false)
	return fn()
}

// readReply reads from the socket until exactly one frame is decoded
func (t *clientTransport) readReply(conn *clientConnection) (codec.Frame, error) {
	for {
		f, ok, err := conn.decoder.Next()
		if err != nil {
			return codec.Frame{}, err
		}
		if ok {
			return f, nil
		}

		n, err := conn.conn.Read(conn.readBuf)
		if n > 0 {
			conn.decoder.Feed(conn.readBuf[:n])
		}
		if err != nil {
			// A complete frame may have arrived together with the error
			if f, ok, derr := conn.decoder.Next(); derr == nil && ok {
				return f, nil
			}
			if errors.Is(err, io.EOF) {
				return codec.Frame{}, fmt.Errorf("connection closed by server: %w", err)
			}
			return codec.Frame{}, err
		}
	}
}

// --------------------------------------------------------------------------
// Connection management
// --------------------------------------------------------------------------

// ensureConnection returns the live connection, dialing a new one if needed
func (t *clientTransport) ensureConnection(requestTimeout time.Duration) (*clientConnection, error) {
	t.mu.Lock()
	if t.conn != nil {
		conn := t.conn
		t.mu.Unlock()
		return conn, nil
	}
	t.mu.Unlock()

	t.state.Store(uint32(StateConnecting))
	t.metrics.dials.Inc()

	endpoint := t.config.Transport.Endpoint
	netConn, err := t.connector.Connect(endpoint, t.config.ConnectTimeout(requestTimeout))
	if err != nil {
		t.metrics.dialFailures.Inc()
		t.state.Store(uint32(StateDisconnected))
		Logger.Warningf("Failed to connect to %s: %v", endpoint, err)
		return nil, err
	}

	if err := t.connector.UpgradeConnection(netConn, t.config); err != nil {
		netConn.Close()
		t.metrics.dialFailures.Inc()
		t.state.Store(uint32(StateDisconnected))
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	conn := &clientConnection{
		conn:    netConn,
		decoder: codec.NewDecoder(t.config.MaxMessageSize()),
		readBuf: make([]byte, readChunkSize),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		netConn.Close()
		t.state.Store(uint32(StateDisconnected))
		return nil, common.NewError(common.KindClosed, "transport closed while connecting", nil)
	}
	t.conn = conn
	t.mu.Unlock()

	t.state.Store(uint32(StateConnected))
	Logger.Infof("Connected to %s using %s transport", endpoint, t.connector.GetName())
	return conn, nil
}

// discard drops conn so the next request starts on a fresh connection.
// It may be called from the worker and from a timer callback for the same
// connection; only the first call has an effect.
func (t *clientTransport) discard(conn *clientConnection, reason string) {
	if conn.closed.Load() {
		t.detach(conn)
		return
	}
	t.state.Store(uint32(StateFaulted))
	t.metrics.discards.Inc()
	Logger.Debugf("Discarding connection: %s", reason)

	t.closeConnection(conn)
	t.detach(conn)
}

// detach removes conn as the live connection if it still is
func (t *clientTransport) detach(conn *clientConnection) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
		t.state.Store(uint32(StateDisconnected))
	}
	t.mu.Unlock()
}

// closeConnection closes the socket once; a blocked read returns immediately
func (t *clientTransport) closeConnection(conn *clientConnection) {
	if conn.closed.CompareAndSwap(false, true) {
		if err := conn.conn.Close(); err != nil {
			Logger.Debugf("Error closing connection: %v", err)
		}
	}
}

// queueLen returns the number of requests waiting for dispatch
func (t *clientTransport) queueLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}
