// Package store provides the high-level key-value API of serialkv: buckets of keys
// whose values may have several conflicting versions (siblings).
//
// The package focuses on:
//   - A unified interface (IStore) used by the CLI, the RPC client and the dev server
//   - Conflict handling through vclocks and pluggable sibling resolution
//
// Key Components:
//
//   - IStore Interface: The core abstraction for interacting with a store. The RPC
//     client (rpc/client) implements it on top of a transport, the in-memory store
//     (lib/store/memstore) implements it for the development server.
//
//   - Object / Content: A read returns an Object with one Content per sibling and
//     the vclock a following write has to carry to replace them.
//
//   - SiblingResolver: A function value injected into the RPC client. It picks the
//     winning sibling when a read returns more than one. LastWriteWins is the stock
//     implementation.
//
//   - Error System: A structured error reporting mechanism using typed return codes
//     and descriptive messages. The codes travel in error replies so a client sees
//     the same *Error the server produced.
package store
