package codec

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"io"
	"math"
	"net"
)

const (
	// LengthSize is the size of the big-endian length prefix
	LengthSize = 4

	// MaxFrameLength is the largest value the length field can describe (op code + payload)
	MaxFrameLength = math.MaxUint32
)

// Frame is one decoded protocol unit
type Frame struct {
	Op      common.OpCode
	Payload []byte
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode builds a frame with the format:
// - 4 bytes: length of op code + payload (uint32, big endian)
// - 1 byte:  op code
// - N bytes: payload
func Encode(op common.OpCode, payload []byte) ([]byte, error) {
	return EncodeLimit(op, payload, MaxFrameLength-1)
}

// EncodeLimit is like Encode but rejects payloads larger than maxPayload bytes
func EncodeLimit(op common.OpCode, payload []byte, maxPayload uint32) ([]byte, error) {
	if uint64(len(payload)) > uint64(maxPayload) || uint64(len(payload))+1 > MaxFrameLength {
		return nil, common.NewError(common.KindFrameTooLarge,
			fmt.Sprintf("payload of %d bytes exceeds limit of %d bytes", len(payload), maxPayload), nil)
	}

	frame := make([]byte, LengthSize+1+len(payload))
	binary.BigEndian.PutUint32(frame[:LengthSize], uint32(len(payload)+1))
	frame[LengthSize] = byte(op)
	copy(frame[LengthSize+1:], payload)
	return frame, nil
}

// WriteFrame writes a single frame to w. Header and payload are handed to
// net.Buffers so a net.Conn can write them with one syscall.
func WriteFrame(w io.Writer, op common.OpCode, payload []byte) error {
	if uint64(len(payload))+1 > MaxFrameLength {
		return common.NewError(common.KindFrameTooLarge,
			fmt.Sprintf("payload of %d bytes exceeds the length field", len(payload)), nil)
	}

	var header [LengthSize + 1]byte
	binary.BigEndian.PutUint32(header[:LengthSize], uint32(len(payload)+1))
	header[LengthSize] = byte(op)

	b := net.Buffers{header[:], payload}
	_, err := b.WriteTo(w)
	return err
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// TryDecode extracts one frame from the start of buf.
// It returns consumed == 0 and a nil error if buf does not yet hold a complete
// frame. On success consumed is the number of bytes the caller must discard.
// The returned payload aliases buf.
// A length field of 0, or one announcing a payload above maxPayload, yields a
// MalformedFrame error; the stream can not be resynchronized after that.
func TryDecode(buf []byte, maxPayload uint32) (f Frame, consumed int, err error) {
	if len(buf) < LengthSize {
		return Frame{}, 0, nil
	}

	length := binary.BigEndian.Uint32(buf[:LengthSize])
	if err := checkLength(length, maxPayload); err != nil {
		return Frame{}, 0, err
	}

	total := LengthSize + int(length)
	if len(buf) < total {
		return Frame{}, 0, nil
	}

	return Frame{
		Op:      common.OpCode(buf[LengthSize]),
		Payload: buf[LengthSize+1 : total],
	}, total, nil
}

// ReadFrame reads exactly one frame from r, blocking until it is complete
func ReadFrame(r io.Reader, maxPayload uint32) (Frame, error) {
	var header [LengthSize + 1]byte

	// Read the length first so a zero length is reported before waiting for an op code
	if _, err := io.ReadFull(r, header[:LengthSize]); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(header[:LengthSize])
	if err := checkLength(length, maxPayload); err != nil {
		return Frame{}, err
	}

	if _, err := io.ReadFull(r, header[LengthSize:]); err != nil {
		return Frame{}, err
	}

	payload := make([]byte, length-1)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}

	return Frame{Op: common.OpCode(header[LengthSize]), Payload: payload}, nil
}

// checkLength validates a decoded length field
func checkLength(length uint32, maxPayload uint32) error {
	if length == 0 {
		return common.NewError(common.KindMalformedFrame, "frame length is zero", nil)
	}
	if length-1 > maxPayload {
		return common.NewError(common.KindMalformedFrame,
			fmt.Sprintf("frame announces %d payload bytes, limit is %d", length-1, maxPayload), nil)
	}
	return nil
}
