package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind classifies every failure the transport reports to a request handler
type ErrorKind uint8

const (
	KindUnknown          ErrorKind = iota
	KindTimeout                    // deadline elapsed before a reply arrived
	KindConnectionFailed           // the socket could not be established
	KindTransportError             // socket read/write failure after connecting
	KindMalformedFrame             // length or framing invariant violated
	KindClosed                     // transport was closed (or never connected)
	KindFrameTooLarge              // payload exceeds the protocol limit
)

// String returns the string representation of an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection failed"
	case KindTransportError:
		return "transport error"
	case KindMalformedFrame:
		return "malformed frame"
	case KindClosed:
		return "closed"
	case KindFrameTooLarge:
		return "frame too large"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type handed to transport response handlers.
// Two errors match with errors.Is when their kinds are equal, so callers
// compare against the sentinel values below.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // optional cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a new transport error of the given kind.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinels for errors.Is comparisons
var (
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrConnectionFailed = &Error{Kind: KindConnectionFailed}
	ErrTransport        = &Error{Kind: KindTransportError}
	ErrMalformedFrame   = &Error{Kind: KindMalformedFrame}
	ErrClosed           = &Error{Kind: KindClosed}
	ErrFrameTooLarge    = &Error{Kind: KindFrameTooLarge}
)

// KindOf returns the ErrorKind carried by err, or KindUnknown if err
// does not wrap an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
