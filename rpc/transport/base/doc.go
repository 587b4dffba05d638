// Package base provides the protocol-agnostic core of the serialkv transports.
// Stream specific details (dialing, listening, socket options) are supplied by
// connectors, so the same engine serves TCP and Unix sockets.
//
// The package focuses on:
//   - Serial scheduling: the wire protocol carries no request identifiers, so at most
//     one request is in flight on the connection and replies are matched by order
//   - A per-request deadline that races the reply; whichever comes first resolves
//     the request and the handler is called exactly once
//   - Reconnect on demand: any timeout, socket error or malformed frame discards the
//     connection and the next queued request dials a fresh one
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Owns the pending queue, the single connection and the worker
//     goroutine that drains the queue. Send never blocks; a request that can not be
//     connected, written or answered is failed with a *common.Error and never retried.
//
//   - timedRequest: One queued request. Its atomic state (created, pending, completed,
//     timed out, failed) is the only arbiter of the reply/deadline race.
//
//   - serverTransport: Accepts connections and answers each request before reading
//     the next one, mirroring the client's one-in-flight discipline.
//
// Metrics:
//
//	Every client transport owns a VictoriaMetrics set with request, dial and queue
//	metrics. It can be written in Prometheus text format with WriteMetrics.
//
// Thread Safety:
//
//	All public methods are thread-safe. Handlers run on the worker goroutine or on a
//	timer goroutine and must not block.
package base
