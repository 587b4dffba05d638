// Package rpc contains the client side transport of serialkv and everything
// needed to talk the binary key-value protocol end to end.
//
// The package is organized into several subpackages:
//
//   - common: Op codes, the payload Message, error kinds, configuration
//     structures and logging.
//
//   - codec: The length prefixed frame format and an incremental decoder.
//
//   - timer: Cancellable one-shot deadlines with a wall clock and a manual
//     implementation for tests.
//
//   - transport: The client and server transport interfaces. base holds the
//     serial connection scheduler, tcp and unix supply the stream sockets.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and frame payloads.
//
//   - client: The store client built on top of a client transport.
//
//   - server: A development server that answers store requests from memory.
package rpc
