// Package tcp implements the TCP transport of the serialkv RPC system. It provides
// concrete implementations of the base package's connector interfaces.
//
// This package builds on the base package's transport functionality, inheriting its
// serial scheduling, per-request deadlines and reconnect handling. See the base
// package documentation for details on the underlying transport mechanisms.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector.
//     Dials with the configured connect timeout.
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both sides apply the TCPConf and SocketConf options (no delay, buffer sizes,
// keep-alive, linger) to every connection they establish.
package tcp
