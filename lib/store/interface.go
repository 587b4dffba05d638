package store

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/common"
)

// --------------------------------------------------------------------------
// Data Types
// --------------------------------------------------------------------------

// Content is one stored value. An object holds one Content per sibling.
type Content = common.Content

// Object is the result of a read: every sibling of a key plus the version
// (vclock) that has to be passed to a following write to supersede them.
type Object struct {
	Bucket   string    `json:"bucket" yaml:"bucket"`
	Key      string    `json:"key" yaml:"key"`
	VClock   []byte    `json:"vclock,omitempty" yaml:"vclock,omitempty"`
	Siblings []Content `json:"siblings" yaml:"siblings"`
}

// HasConflict reports whether the object has more than one sibling
func (o *Object) HasConflict() bool {
	return len(o.Siblings) > 1
}

// ServerInfo describes the server a store is connected to
type ServerInfo struct {
	Node          string `json:"node" yaml:"node"`
	ServerVersion string `json:"server_version" yaml:"server_version"`
}

// SiblingResolver picks the content that should win when a read returns
// conflicting siblings. It is only called for objects with more than one sibling.
type SiblingResolver func(obj *Object) Content

// LastWriteWins resolves siblings by picking the most recently modified content.
// Ties go to the later sibling.
func LastWriteWins(obj *Object) Content {
	var winner Content
	for i, c := range obj.Siblings {
		if i == 0 || c.LastModified >= winner.LastModified {
			winner = c
		}
	}
	return winner
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a bucketed key–value store.
// Write operations return only an error (nil on success), read operations return the
// requested data along with an error. Store errors are of type *Error.
type IStore interface {
	// Ping checks that the store is reachable.
	Ping() (err error)
	// ServerInfo returns the node name and version of the server.
	ServerInfo() (info ServerInfo, err error)
	// ClientID returns the client id the server uses for this client.
	ClientID() (id []byte, err error)
	// SetClientID changes the client id used for subsequent writes.
	SetClientID(id []byte) (err error)
	// Get returns the object stored under bucket/key. The boolean return value indicates
	// whether a value for the key was found.
	Get(bucket, key string) (obj *Object, found bool, err error)
	// Put stores content under bucket/key and returns the new vclock.
	// If vclock is the current version of the key the stored value is replaced,
	// a missing or stale vclock adds the content as a new sibling.
	Put(bucket, key string, vclock []byte, content Content) (newVClock []byte, err error)
	// Delete removes bucket/key. Deleting a missing key is not an error.
	Delete(bucket, key string, vclock []byte) (err error)
	// ListBuckets returns the names of all buckets that hold at least one key, sorted.
	ListBuckets() (buckets []string, err error)
	// ListKeys returns all keys of a bucket, sorted.
	ListKeys(bucket string) (keys []string, err error)
}

// --------------------------------------------------------------------------
// Version Clock Encoding
// --------------------------------------------------------------------------

// EncodeVClock encodes a write index as an opaque vclock
func EncodeVClock(index uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, index)
}

// DecodeVClock decodes a vclock created by EncodeVClock.
// The boolean return value is false for nil or foreign vclocks.
func DecodeVClock(vclock []byte) (uint64, bool) {
	if len(vclock) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(vclock), true
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode is the result code of a store operation. It travels in error replies.
type RetCode uint32

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the server.
	RetCInvalidOperation                    // 3: Invalid operation, e.g. a missing bucket or key.
	RetCBadRequest                          // 4: The request payload could not be decoded.
)

// String returns the string representation of a RetCode.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCBadRequest:
		return "BadRequest"
	default:
		return "Unknown"
	}
}
