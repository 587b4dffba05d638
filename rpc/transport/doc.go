// Package transport defines the interfaces and abstractions for RPC communication
// between the serialkv client and a server. It provides a common contract that all
// transport implementations must fulfill.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - An asynchronous, handler based client contract (Send never blocks)
//   - Enabling multiple stream socket implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations.
//     Requests are queued and answered through a ResponseHandler that is invoked
//     exactly once per request.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receive requests and hand them to a ServerHandleFunc.
//
//   - ServerHandleFunc / ResponseHandler: Function types for request handling callbacks.
package transport
