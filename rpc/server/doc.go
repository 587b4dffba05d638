// Package server implements the development RPC server of serialkv. It answers the
// request op codes of the wire protocol from an in-memory store.
//
// The package focuses on:
//   - Server-side RPC request handling for store operations
//   - Adapter pattern to decouple store logic from RPC mechanisms
//   - Turning store errors into error replies that keep their return codes
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes a decoded request against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for key-value
//     store operations, translating request op codes to store.IStore method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms and a fresh memstore. Every server gets a
//     random node name ("skv-<uuid>").
//
// Usage Example:
//
//	s, _ := server.NewRPCServer(
//	  common.ServerConfig{Endpoint: "0.0.0.0:8087", TimeoutSecond: 30},
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server handles connections concurrently, one goroutine per connection.
//	Requests on a single connection are answered strictly in order.
package server
