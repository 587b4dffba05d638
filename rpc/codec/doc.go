// Package codec implements the length-prefixed frame format of the wire protocol.
//
// Frame format:
//
//	0        4     5
//	┌────────┬─────┬────────────────────────┐
//	│ length │ op  │ payload ...            │
//	│ uint32 │ u8  │ length-1 bytes         │
//	└────────┴─────┴────────────────────────┘
//
// The length is big endian and covers the op code and the payload, so a
// valid frame always has length >= 1. The payload is opaque to this package.
//
// Two decoding styles are provided:
//
//   - TryDecode / Decoder: non-blocking, work on an accumulating receive buffer.
//     Feeding a stream in arbitrary pieces yields every frame exactly once, in order.
//   - ReadFrame: blocking, reads one frame from an io.Reader with io.ReadFull.
//
// A malformed length (zero, or above the configured payload limit) is reported
// as a MalformedFrame error. The protocol has no resynchronization marker, so
// the connection carrying such a stream must be discarded.
package codec
