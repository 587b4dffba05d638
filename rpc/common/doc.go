// Package common provides core data structures and utilities shared across
// the serialkv client, transport and development server. It defines the wire
// level op codes, the payload message, configuration structures and the
// transport error kinds.
//
// The package focuses on:
//   - Op code enumeration for the one-reply-per-request protocol
//   - The Message body carried inside every frame
//   - Configuration structures for client and server components
//   - Typed transport errors (ErrorKind) usable with errors.Is
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - OpCode: The single-byte tag of every frame. Requests use odd codes and
//     their reply is always the following even code; OpErrorResp (0) may answer
//     any request.
//
//   - Message / Content: The structured payload. Which fields are used depends on
//     the op code. Get replies carry one Content per sibling.
//
//   - ClientConfig / ServerConfig: Endpoint, timeouts, message size limits and
//     socket options, with String() pretty printers for the CLI.
//
//   - Error / ErrorKind: Timeout, ConnectionFailed, TransportError, MalformedFrame,
//     Closed and FrameTooLarge. Compare with errors.Is against ErrTimeout etc.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
