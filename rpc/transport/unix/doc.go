// Package unix implements a transport layer for the serialkv RPC system using Unix
// domain sockets. It is meant for a client and a server running on the same machine.
//
// This package extends the base transport layer with Unix socket-specific connectors
// while inheriting serial scheduling, deadlines and reconnect handling from the base
// package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners and accepts connections.
//     A stale socket file at the endpoint path is removed before listening.
package unix
