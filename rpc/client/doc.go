// Package client implements the RPC client of serialkv. It provides an implementation
// of the store.IStore interface that talks to a server through a client transport.
//
// The package focuses on:
//   - Blocking store calls layered on top of the asynchronous transport
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//   - Sibling resolution through an injected store.SiblingResolver
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to the server via the configured
//     transport layer. Error replies are returned as *store.Error, transport failures
//     (timeouts, connection errors, ...) as *common.Error.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutMillisecond: 5000,
//	  Transport:          common.ClientTransportConfig{Endpoint: "localhost:8087"},
//	}
//
//	kv, _ := client.NewRPCStore(config, tcp.NewTCPClientTransport(),
//	  serializer.NewBinarySerializer(), store.LastWriteWins)
//
//	vclock, _ := kv.Put("users", "alice", nil, store.Content{Value: []byte("hello")})
//	obj, found, _ := kv.Get("users", "alice")
//
// Thread Safety:
//
//	The client is safe for concurrent use. Concurrent calls are queued by the
//	transport and sent one at a time over a single connection.
package client
