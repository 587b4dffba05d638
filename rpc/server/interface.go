package server

import (
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes the request op code, the decoded Message and a store as parameters.
	// It returns the reply op code and Message.
	// If an error occurs, the reply is an OpErrorResp carrying the error
	Handle(op common.OpCode, req *common.Message, store store.IStore) (respOp common.OpCode, resp *common.Message)
}
