package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
)

// NewIStoreServerAdapter creates the adapter that maps request op codes to store.IStore calls
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(op common.OpCode, req *common.Message, s store.IStore) (common.OpCode, *common.Message) {
	// Check for nil store
	if s == nil {
		return errorResponse(store.NewError(store.RetCInternalError, "handler: store is nil"))
	}

	var resp *common.Message
	var err error

	// Handle different op codes
	switch op {
	case common.OpPingReq:
		err = s.Ping()
		resp = &common.Message{}
	case common.OpGetClientIDReq:
		var id []byte
		id, err = s.ClientID()
		resp = common.NewClientIDMessage(id)
	case common.OpSetClientIDReq:
		err = s.SetClientID(req.ClientID)
		resp = &common.Message{}
	case common.OpGetServerInfoReq:
		var info store.ServerInfo
		info, err = s.ServerInfo()
		resp = common.NewServerInfoResponse(info.Node, info.ServerVersion)
	case common.OpGetReq:
		var obj *store.Object
		var found bool
		obj, found, err = s.Get(req.Bucket, req.Key)
		if found {
			resp = common.NewGetResponse(obj.VClock, obj.Siblings)
		} else {
			resp = common.NewGetResponse(nil, nil)
		}
	case common.OpPutReq:
		if len(req.Contents) != 1 {
			return errorResponse(store.NewError(store.RetCInvalidOperation,
				fmt.Sprintf("put expects exactly one content, got %d", len(req.Contents))))
		}
		var vclock []byte
		vclock, err = s.Put(req.Bucket, req.Key, req.VClock, req.Contents[0])
		resp = common.NewPutResponse(vclock)
	case common.OpDelReq:
		err = s.Delete(req.Bucket, req.Key, req.VClock)
		resp = &common.Message{}
	case common.OpListBucketsReq:
		var buckets []string
		buckets, err = s.ListBuckets()
		resp = common.NewListBucketsResponse(buckets)
	case common.OpListKeysReq:
		var keys []string
		keys, err = s.ListKeys(req.Bucket)
		resp = common.NewListKeysResponse(keys)
	default:
		return errorResponse(store.NewError(store.RetCUnsupportedOperation,
			fmt.Sprintf("RPC IStoreAdapter - Unsupported op code: %s", op)))
	}

	if err != nil {
		return errorResponse(err)
	}
	return op.ResponseOp(), resp
}

// errorResponse turns err into an error reply, keeping the return code of store errors
func errorResponse(err error) (common.OpCode, *common.Message) {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return common.OpErrorResp, common.NewErrorResponse(uint32(storeErr.Code), storeErr.Msg)
	}
	return common.OpErrorResp, common.NewErrorResponse(uint32(store.RetCInternalError), err.Error())
}
