// Package timer provides the deadline timers used by the transport to bound
// each request.
//
// The IFactory / IHandle pair is injected into the client transport so tests
// can replace wall clock time with a manually advanced clock and replay both
// orderings of the reply/deadline race deterministically.
//
// Cancel contract: a Cancel call returning true guarantees the callback will
// never run; one returning false guarantees the callback has already started.
// The transport relies on this to cancel a deadline without further locking.
//
// Implementations:
//
//   - NewWallClockFactory: time.AfterFunc guarded by an atomic state so Stop and
//     expiry can not both win.
//   - NewManualFactory: deterministic clock, callbacks run inside Advance.
package timer
