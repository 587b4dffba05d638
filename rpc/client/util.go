package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/serializer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCStore with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// transportReply is the outcome of one transport request
type transportReply struct {
	op      common.OpCode
	payload []byte
	err     error
}

// invokeRPCRequest is a helper function used by all RPC clients to send requests.
// It blocks on top of the asynchronous transport until the reply handler is called
// or ctx is done. It also converts error replies into *store.Error values and checks
// that the reply op code matches the request.
func (a *rpcClientAdapter) invokeRPCRequest(ctx context.Context, op common.OpCode, req *common.Message) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", op, err)
	}

	timeout := a.config.DefaultTimeout()

	// The transport resolves every request, the context only guards the caller
	// against waiting past the connect plus request deadline
	ctx, cancel := context.WithTimeout(ctx, a.config.ConnectTimeout(timeout)+timeout+time.Second)
	defer cancel()

	// Buffered so a late handler never blocks the transport
	replyCh := make(chan transportReply, 1)
	a.transport.Send(op, reqBytes, timeout, func(op common.OpCode, payload []byte, err error) {
		replyCh <- transportReply{op: op, payload: payload, err: err}
	})

	var reply transportReply
	select {
	case reply = <-replyCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if reply.err != nil {
		return nil, reply.err
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := a.serializer.Deserialize(reply.payload, resp); err != nil {
		return nil, fmt.Errorf("RPC IStoreAdapter - failed to decode %s reply: %w", reply.op, err)
	}

	// Check if the response is an error response
	if reply.op == common.OpErrorResp {
		return nil, store.NewError(store.RetCode(resp.ErrCode), resp.Err)
	}

	// Check if the op code of the response is the expected one
	if expected := op.ResponseOp(); reply.op != expected {
		return nil, fmt.Errorf("RPC IStoreAdapter - Unexpected reply op code: %s, expected %s", reply.op, expected)
	}

	// Return the response
	return resp, nil
}
