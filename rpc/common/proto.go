package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Content is a single stored value (one sibling of an object)
type Content struct {
	Value        []byte `json:"value,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified int64  `json:"last_modified,omitempty"` // unix nanoseconds, set by the server
}

// Message is the payload body carried inside a frame. The op code travels in the
// frame header, so a Message does not repeat it. Which fields are used depends on the op.
type Message struct {
	// General fields
	Bucket   string    `json:"bucket,omitempty"`   // Used for: Get, Put, Del, ListKeys
	Key      string    `json:"key,omitempty"`      // Used for: Get, Put, Del
	VClock   []byte    `json:"vclock,omitempty"`   // Used for: Get (response), Put (request + response), Del
	Contents []Content `json:"contents,omitempty"` // Used for: Get (response, one entry per sibling), Put (request)

	// Listing fields
	Keys    []string `json:"keys,omitempty"`    // Used for: ListKeys responses
	Buckets []string `json:"buckets,omitempty"` // Used for: ListBuckets responses

	// Connection / server fields
	ClientID      []byte `json:"client_id,omitempty"`      // Used for: Get/SetClientID
	Node          string `json:"node,omitempty"`           // Used for: GetServerInfo responses
	ServerVersion string `json:"server_version,omitempty"` // Used for: GetServerInfo responses

	// Error fields (ErrorResp only)
	ErrCode uint32 `json:"err_code,omitempty"`
	Err     string `json:"err,omitempty"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(bucket, key string) *Message {
	return &Message{Bucket: bucket, Key: key}
}

// NewGetResponse creates a new Get response. An empty contents slice means "not found".
func NewGetResponse(vclock []byte, contents []Content) *Message {
	return &Message{VClock: vclock, Contents: contents}
}

// NewPutRequest creates a new Put request
func NewPutRequest(bucket, key string, vclock []byte, content Content) *Message {
	return &Message{Bucket: bucket, Key: key, VClock: vclock, Contents: []Content{content}}
}

// NewPutResponse creates a new Put response carrying the new version
func NewPutResponse(vclock []byte) *Message {
	return &Message{VClock: vclock}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(bucket, key string, vclock []byte) *Message {
	return &Message{Bucket: bucket, Key: key, VClock: vclock}
}

// NewListKeysRequest creates a new ListKeys request
func NewListKeysRequest(bucket string) *Message {
	return &Message{Bucket: bucket}
}

// NewListKeysResponse creates a new ListKeys response
func NewListKeysResponse(keys []string) *Message {
	return &Message{Keys: keys}
}

// NewListBucketsResponse creates a new ListBuckets response
func NewListBucketsResponse(buckets []string) *Message {
	return &Message{Buckets: buckets}
}

// NewClientIDMessage creates a SetClientID request or a GetClientID response
func NewClientIDMessage(clientID []byte) *Message {
	return &Message{ClientID: clientID}
}

// NewServerInfoResponse creates a new GetServerInfo response
func NewServerInfoResponse(node, version string) *Message {
	return &Message{Node: node, ServerVersion: version}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code uint32, err string) *Message {
	return &Message{ErrCode: code, Err: err}
}

// --------------------------------------------------------------------------
// Op Code Definition
// --------------------------------------------------------------------------

// OpCode is the single-byte tag in every frame identifying the payload's message type.
type OpCode uint8

const (
	OpErrorResp         OpCode = 0
	OpPingReq           OpCode = 1
	OpPingResp          OpCode = 2
	OpGetClientIDReq    OpCode = 3
	OpGetClientIDResp   OpCode = 4
	OpSetClientIDReq    OpCode = 5
	OpSetClientIDResp   OpCode = 6
	OpGetServerInfoReq  OpCode = 7
	OpGetServerInfoResp OpCode = 8
	OpGetReq            OpCode = 9
	OpGetResp           OpCode = 10
	OpPutReq            OpCode = 11
	OpPutResp           OpCode = 12
	OpDelReq            OpCode = 13
	OpDelResp           OpCode = 14
	OpListBucketsReq    OpCode = 15
	OpListBucketsResp   OpCode = 16
	OpListKeysReq       OpCode = 17
	OpListKeysResp      OpCode = 18
)

var opNames = map[OpCode]string{
	OpErrorResp:         "error",
	OpPingReq:           "ping",
	OpPingResp:          "ping-resp",
	OpGetClientIDReq:    "get-client-id",
	OpGetClientIDResp:   "get-client-id-resp",
	OpSetClientIDReq:    "set-client-id",
	OpSetClientIDResp:   "set-client-id-resp",
	OpGetServerInfoReq:  "server-info",
	OpGetServerInfoResp: "server-info-resp",
	OpGetReq:            "get",
	OpGetResp:           "get-resp",
	OpPutReq:            "put",
	OpPutResp:           "put-resp",
	OpDelReq:            "del",
	OpDelResp:           "del-resp",
	OpListBucketsReq:    "list-buckets",
	OpListBucketsResp:   "list-buckets-resp",
	OpListKeysReq:       "list-keys",
	OpListKeysResp:      "list-keys-resp",
}

// String returns the string representation of an OpCode.
func (o OpCode) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(o))
}

// IsRequest reports whether o is a request op code
func (o OpCode) IsRequest() bool {
	return o != OpErrorResp && o <= OpListKeysResp && o%2 == 1
}

// ResponseOp returns the op code of a successful reply to request o.
// Every request has exactly one reply, so the reply code is always o+1.
func (o OpCode) ResponseOp() OpCode {
	if !o.IsRequest() {
		return OpErrorResp
	}
	return o + 1
}

// MarshalJSON implements the json.Marshaller interface for OpCode.
func (o OpCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for OpCode.
func (o *OpCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for code, name := range opNames {
		if name == s {
			*o = code
			return nil
		}
	}
	return fmt.Errorf("unknown op code: %s", s)
}
