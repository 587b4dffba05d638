package transport

import (
	"github.com/ValentinKolb/serialkv/rpc/common"
	"net"
	"time"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes the op code and payload of a request and returns the reply op code and payload
type ServerHandleFunc func(op common.OpCode, req []byte) (respOp common.OpCode, resp []byte)

// IRPCServerTransport is the interface for the RPC server transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen creates a listener for the configured endpoint and serves it until Close is called
	Listen(config common.ServerConfig) error
	// Serve serves an existing listener until Close is called
	Serve(listener net.Listener, config common.ServerConfig) error
	// Close stops accepting connections and closes all open ones
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// ResponseHandler receives the outcome of one request. It is called exactly once,
// either with the reply (op, payload) and a nil error, or with a *common.Error.
// It may be called from the transport's worker goroutine or a timer goroutine,
// so it should not block.
type ResponseHandler func(op common.OpCode, payload []byte, err error)

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration.
	// Connections to the server are established on demand.
	Connect(config common.ClientConfig) error
	// Send queues one request. It never blocks and always accepts the request;
	// the outcome is reported to handler. A timeout <= 0 selects the configured default.
	Send(op common.OpCode, payload []byte, timeout time.Duration, handler ResponseHandler)
	// Close fails all queued requests with common.ErrClosed and closes the connection
	Close() error
}
