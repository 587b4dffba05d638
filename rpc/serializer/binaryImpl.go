package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: a 2 byte flag field followed by every present field in flag order.
// Strings and byte slices are written as a 4 byte length plus data, lists as a
// 4 byte count plus their elements. All integers are big endian.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasBucket        uint16 = 1 << 0
	hasKey           uint16 = 1 << 1
	hasVClock        uint16 = 1 << 2
	hasContents      uint16 = 1 << 3
	hasKeys          uint16 = 1 << 4
	hasBuckets       uint16 = 1 << 5
	hasClientID      uint16 = 1 << 6
	hasNode          uint16 = 1 << 7
	hasServerVersion uint16 = 1 << 8
	hasErrCode       uint16 = 1 << 9
	hasErr           uint16 = 1 << 10
)

// headerSize is the size of the flag field
const headerSize = 2

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	w := binaryWriter{buf: make([]byte, headerSize, b.sizeBytes(msg))}

	var flags uint16

	if msg.Bucket != "" {
		flags |= hasBucket
		w.putString(msg.Bucket)
	}
	if msg.Key != "" {
		flags |= hasKey
		w.putString(msg.Key)
	}
	if msg.VClock != nil {
		flags |= hasVClock
		w.putBytes(msg.VClock)
	}
	if msg.Contents != nil {
		flags |= hasContents
		w.putUint32(uint32(len(msg.Contents)))
		for _, c := range msg.Contents {
			w.putBytes(c.Value)
			w.putString(c.ContentType)
			w.putUint64(uint64(c.LastModified))
		}
	}
	if msg.Keys != nil {
		flags |= hasKeys
		w.putStrings(msg.Keys)
	}
	if msg.Buckets != nil {
		flags |= hasBuckets
		w.putStrings(msg.Buckets)
	}
	if msg.ClientID != nil {
		flags |= hasClientID
		w.putBytes(msg.ClientID)
	}
	if msg.Node != "" {
		flags |= hasNode
		w.putString(msg.Node)
	}
	if msg.ServerVersion != "" {
		flags |= hasServerVersion
		w.putString(msg.ServerVersion)
	}
	if msg.ErrCode != 0 {
		flags |= hasErrCode
		w.putUint32(msg.ErrCode)
	}
	if msg.Err != "" {
		flags |= hasErr
		w.putString(msg.Err)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(w.buf[:headerSize], flags)

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	flags := binary.BigEndian.Uint16(data[:headerSize])
	r := binaryReader{data: data, pos: headerSize}
	*msg = common.Message{}

	if flags&hasBucket != 0 {
		msg.Bucket = r.string("bucket")
	}
	if flags&hasKey != 0 {
		msg.Key = r.string("key")
	}
	if flags&hasVClock != 0 {
		msg.VClock = r.bytes("vclock")
	}
	if flags&hasContents != 0 {
		n := r.count("contents")
		msg.Contents = make([]common.Content, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			var c common.Content
			c.Value = r.bytes("content value")
			c.ContentType = r.string("content type")
			c.LastModified = int64(r.uint64("last modified"))
			msg.Contents = append(msg.Contents, c)
		}
	}
	if flags&hasKeys != 0 {
		msg.Keys = r.strings("keys")
	}
	if flags&hasBuckets != 0 {
		msg.Buckets = r.strings("buckets")
	}
	if flags&hasClientID != 0 {
		msg.ClientID = r.bytes("client id")
	}
	if flags&hasNode != 0 {
		msg.Node = r.string("node")
	}
	if flags&hasServerVersion != 0 {
		msg.ServerVersion = r.string("server version")
	}
	if flags&hasErrCode != 0 {
		msg.ErrCode = r.uint32("error code")
	}
	if flags&hasErr != 0 {
		msg.Err = r.string("error")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	strLen := func(s string) int { return 4 + len(s) }
	listLen := func(l []string) int {
		n := 4
		for _, s := range l {
			n += strLen(s)
		}
		return n
	}

	if msg.Bucket != "" {
		size += strLen(msg.Bucket)
	}
	if msg.Key != "" {
		size += strLen(msg.Key)
	}
	if msg.VClock != nil {
		size += 4 + len(msg.VClock)
	}
	if msg.Contents != nil {
		size += 4
		for _, c := range msg.Contents {
			size += 4 + len(c.Value) + strLen(c.ContentType) + 8
		}
	}
	if msg.Keys != nil {
		size += listLen(msg.Keys)
	}
	if msg.Buckets != nil {
		size += listLen(msg.Buckets)
	}
	if msg.ClientID != nil {
		size += 4 + len(msg.ClientID)
	}
	if msg.Node != "" {
		size += strLen(msg.Node)
	}
	if msg.ServerVersion != "" {
		size += strLen(msg.ServerVersion)
	}
	if msg.ErrCode != 0 {
		size += 4
	}
	if msg.Err != "" {
		size += strLen(msg.Err)
	}

	return size
}

// binaryWriter appends fields to a preallocated buffer
type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) putUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *binaryWriter) putUint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *binaryWriter) putBytes(p []byte) {
	w.putUint32(uint32(len(p)))
	w.buf = append(w.buf, p...)
}

func (w *binaryWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binaryWriter) putStrings(l []string) {
	w.putUint32(uint32(len(l)))
	for _, s := range l {
		w.putString(s)
	}
}

// binaryReader reads fields and remembers the first error.
// After an error every read returns the zero value.
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

// take returns the next n bytes or records an error naming field
func (r *binaryReader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return nil
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *binaryReader) uint32(field string) uint32 {
	p := r.take(4, field)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint32(p)
}

func (r *binaryReader) uint64(field string) uint64 {
	p := r.take(8, field)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint64(p)
}

// count reads a list length and checks it against the remaining data,
// every element needs at least 4 bytes
func (r *binaryReader) count(field string) int {
	n := int(r.uint32(field + " count"))
	if r.err == nil && n > (len(r.data)-r.pos)/4 {
		r.err = fmt.Errorf("invalid %s count %d", field, n)
		return 0
	}
	return n
}

// bytes reads a length prefixed byte slice. The result is a copy and never nil.
func (r *binaryReader) bytes(field string) []byte {
	n := r.uint32(field + " length")
	p := r.take(int(n), field)
	if r.err != nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

func (r *binaryReader) string(field string) string {
	n := r.uint32(field + " length")
	return string(r.take(int(n), field))
}

func (r *binaryReader) strings(field string) []string {
	n := r.count(field)
	out := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.string(field))
	}
	return out
}
