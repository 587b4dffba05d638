package server

import (
	"fmt"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/lib/store/memstore"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/serializer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("server")

// RPCServer answers store requests received through a server transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	store      store.IStore
}

// NewRPCServer creates a new RPC server backed by a fresh in-memory store.
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s, err := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) (*RPCServer, error) {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	node := "skv-" + uuid.NewString()
	s := memstore.NewMemStore(store.ServerInfo{Node: node, ServerVersion: common.Version})

	// Every client starts with the server's default client id until it sets its own
	clientID, err := uuid.New().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to create client id: %w", err)
	}
	if err := s.SetClientID(clientID); err != nil {
		return nil, err
	}

	return NewRPCServerWithStore(config, transport, serializer, s), nil
}

// NewRPCServerWithStore creates a new RPC server that answers requests from s
func NewRPCServerWithStore(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	s store.IStore,
) *RPCServer {
	server := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewIStoreServerAdapter(),
		store:      s,
	}
	server.registerTransportHandler()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return server
}

// Serve listens on the configured endpoint and blocks until Close is called
func (s *RPCServer) Serve() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// ServeListener serves an existing listener and blocks until Close is called
func (s *RPCServer) ServeListener(listener net.Listener) error {
	return s.transport.Serve(listener, s.config)
}

// Close stops the server and closes all connections
func (s *RPCServer) Close() error {
	return s.transport.Close()
}

// handle decodes one request, runs it against the store and encodes the reply
func (s *RPCServer) handle(op common.OpCode, req []byte) (common.OpCode, []byte) {
	start := time.Now()

	var respOp common.OpCode
	var respMsg *common.Message

	var msg common.Message
	if !op.IsRequest() {
		respOp, respMsg = errorResponse(store.NewError(store.RetCUnsupportedOperation,
			fmt.Sprintf("op code %s is not a request", op)))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respOp, respMsg = errorResponse(store.NewError(store.RetCBadRequest,
			fmt.Sprintf("failed to deserialize request: %s", err)))
	} else {
		// Let the adapter handle the request
		respOp, respMsg = s.adapter.Handle(op, &msg, s.store)
	}

	resp, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize %s response: %v", respOp, err)
		respOp, respMsg = errorResponse(fmt.Errorf("failed to serialize response: %s", err))
		resp, _ = s.serializer.Serialize(*respMsg)
	}

	Logger.Debugf("handled %s -> %s in %s", op, respOp, time.Since(start))
	return respOp, resp
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(s.handle)
}
