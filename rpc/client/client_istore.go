package client

import (
	"context"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/ValentinKolb/serialkv/rpc/serializer"
	"github.com/ValentinKolb/serialkv/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a config, a transport, a serializer and a sibling resolver as parameters.
// A nil resolver leaves conflicting siblings to the caller.
// It returns a store.IStore and an error
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	resolver store.SiblingResolver,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter: rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
		resolver: resolver,
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
	resolver store.SiblingResolver
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Ping() (err error) {
	_, err = i.invokeRPCRequest(context.Background(), common.OpPingReq, &common.Message{})
	return err
}

func (i *rpcStore) ServerInfo() (info store.ServerInfo, err error) {
	resp, err := i.invokeRPCRequest(context.Background(), common.OpGetServerInfoReq, &common.Message{})
	if err != nil {
		return store.ServerInfo{}, err
	}
	return store.ServerInfo{Node: resp.Node, ServerVersion: resp.ServerVersion}, nil
}

func (i *rpcStore) ClientID() (id []byte, err error) {
	resp, err := i.invokeRPCRequest(context.Background(), common.OpGetClientIDReq, &common.Message{})
	if err != nil {
		return nil, err
	}
	return resp.ClientID, nil
}

func (i *rpcStore) SetClientID(id []byte) (err error) {
	_, err = i.invokeRPCRequest(context.Background(), common.OpSetClientIDReq, common.NewClientIDMessage(id))
	return err
}

func (i *rpcStore) Get(bucket, key string) (obj *store.Object, found bool, err error) {
	req := common.NewGetRequest(bucket, key)
	resp, err := i.invokeRPCRequest(context.Background(), common.OpGetReq, req)
	if err != nil {
		return nil, false, err
	}

	// A reply without contents means not found
	if len(resp.Contents) == 0 {
		return nil, false, nil
	}

	obj = &store.Object{
		Bucket:   bucket,
		Key:      key,
		VClock:   resp.VClock,
		Siblings: resp.Contents,
	}

	if obj.HasConflict() && i.resolver != nil {
		Logger.Debugf("resolving %d siblings of %s/%s", len(obj.Siblings), bucket, key)
		obj.Siblings = []store.Content{i.resolver(obj)}
	}
	return obj, true, nil
}

func (i *rpcStore) Put(bucket, key string, vclock []byte, content store.Content) (newVClock []byte, err error) {
	req := common.NewPutRequest(bucket, key, vclock, content)
	resp, err := i.invokeRPCRequest(context.Background(), common.OpPutReq, req)
	if err != nil {
		return nil, err
	}
	return resp.VClock, nil
}

func (i *rpcStore) Delete(bucket, key string, vclock []byte) (err error) {
	req := common.NewDeleteRequest(bucket, key, vclock)
	_, err = i.invokeRPCRequest(context.Background(), common.OpDelReq, req)
	return err
}

func (i *rpcStore) ListBuckets() (buckets []string, err error) {
	resp, err := i.invokeRPCRequest(context.Background(), common.OpListBucketsReq, &common.Message{})
	if err != nil {
		return nil, err
	}
	return resp.Buckets, nil
}

func (i *rpcStore) ListKeys(bucket string) (keys []string, err error) {
	resp, err := i.invokeRPCRequest(context.Background(), common.OpListKeysReq, common.NewListKeysRequest(bucket))
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}
