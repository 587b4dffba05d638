package codec

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"testing"
)

// testPayloads returns payloads of different shapes
func testPayloads() map[string][]byte {
	large := make([]byte, 70000)
	for i := range large {
		large[i] = byte(i % 251)
	}
	return map[string][]byte{
		"empty":   {},
		"single":  {0x42},
		"text":    []byte("hello world"),
		"zeros":   make([]byte, 16),
		"large":   large,
		"lengthy": bytes.Repeat([]byte{0, 0, 0, 0}, 8), // looks like zero-length headers
	}
}

func TestEncodeLayout(t *testing.T) {
	frame, err := Encode(common.OpGetReq, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	expected := []byte{0, 0, 0, 4, byte(common.OpGetReq), 1, 2, 3}
	if !bytes.Equal(frame, expected) {
		t.Errorf("Unexpected frame bytes:\nExpected: %v\nGot: %v", expected, frame)
	}
}

func TestRoundTrip(t *testing.T) {
	for name, payload := range testPayloads() {
		t.Run(name, func(t *testing.T) {
			frame, err := Encode(common.OpPutReq, payload)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			f, n, err := TryDecode(frame, common.DefaultMaxMessageSize)
			if err != nil {
				t.Fatalf("TryDecode failed: %v", err)
			}
			if n != len(frame) {
				t.Errorf("Expected %d consumed bytes, got %d", len(frame), n)
			}
			if f.Op != common.OpPutReq {
				t.Errorf("Expected op %s, got %s", common.OpPutReq, f.Op)
			}
			if !bytes.Equal(f.Payload, payload) {
				t.Errorf("Payload mismatch after round trip (len %d vs %d)", len(f.Payload), len(payload))
			}

			// Blocking reader must agree
			rf, err := ReadFrame(bytes.NewReader(frame), common.DefaultMaxMessageSize)
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if rf.Op != common.OpPutReq || !bytes.Equal(rf.Payload, payload) {
				t.Errorf("ReadFrame returned a different frame")
			}
		})
	}
}

func TestTryDecodeIncomplete(t *testing.T) {
	frame, _ := Encode(common.OpPingReq, []byte("abc"))

	for i := 0; i < len(frame); i++ {
		_, n, err := TryDecode(frame[:i], common.DefaultMaxMessageSize)
		if err != nil {
			t.Fatalf("Prefix of %d bytes: unexpected error %v", i, err)
		}
		if n != 0 {
			t.Fatalf("Prefix of %d bytes: reported a frame of %d bytes", i, n)
		}
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	const n = 25
	var stream []byte
	payloads := make([][]byte, n)
	for i := 0; i < n; i++ {
		payloads[i] = bytes.Repeat([]byte{byte(i)}, i*7)
		frame, err := Encode(common.OpCode(i%19), payloads[i])
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		stream = append(stream, frame...)
	}

	d := NewDecoder(common.DefaultMaxMessageSize)
	var decoded []Frame
	for _, b := range stream {
		d.Feed([]byte{b})
		for {
			f, ok, err := d.Next()
			if err != nil {
				t.Fatalf("Unexpected decode error: %v", err)
			}
			if !ok {
				break
			}
			decoded = append(decoded, f)
		}
	}

	if len(decoded) != n {
		t.Fatalf("Expected %d frames, got %d", n, len(decoded))
	}
	for i, f := range decoded {
		if f.Op != common.OpCode(i%19) {
			t.Errorf("Frame %d: expected op %d, got %d", i, i%19, f.Op)
		}
		if !bytes.Equal(f.Payload, payloads[i]) {
			t.Errorf("Frame %d: payload mismatch", i)
		}
	}
	if d.Buffered() != 0 {
		t.Errorf("Expected empty buffer, %d bytes left", d.Buffered())
	}
}

func TestDecoderConcatenatedFeed(t *testing.T) {
	var stream []byte
	for i := 0; i < 3; i++ {
		frame, _ := Encode(common.OpGetResp, []byte{byte(i)})
		stream = append(stream, frame...)
	}

	d := NewDecoder(common.DefaultMaxMessageSize)
	d.Feed(stream)
	for i := 0; i < 3; i++ {
		f, ok, err := d.Next()
		if err != nil || !ok {
			t.Fatalf("Frame %d: ok=%v err=%v", i, ok, err)
		}
		if f.Payload[0] != byte(i) {
			t.Errorf("Frame %d decoded out of order", i)
		}
	}
	if _, ok, _ := d.Next(); ok {
		t.Errorf("Decoder produced a frame from an empty buffer")
	}
}

func TestMalformedFrames(t *testing.T) {
	cases := map[string][]byte{
		"zero length": {0, 0, 0, 0},
		"too large":   {0, 0, 1, 2, 1}, // 257 bytes announced, limit 16
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := TryDecode(buf, 16)
			if !errors.Is(err, common.ErrMalformedFrame) {
				t.Errorf("TryDecode: expected MalformedFrame, got %v", err)
			}

			_, err = ReadFrame(bytes.NewReader(buf), 16)
			if !errors.Is(err, common.ErrMalformedFrame) {
				t.Errorf("ReadFrame: expected MalformedFrame, got %v", err)
			}

			d := NewDecoder(16)
			d.Feed(buf)
			if _, _, err := d.Next(); !errors.Is(err, common.ErrMalformedFrame) {
				t.Errorf("Decoder: expected MalformedFrame, got %v", err)
			}
		})
	}
}

func TestEncodeLimit(t *testing.T) {
	if _, err := EncodeLimit(common.OpPutReq, make([]byte, 17), 16); !errors.Is(err, common.ErrFrameTooLarge) {
		t.Errorf("Expected FrameTooLarge, got %v", err)
	}
	if _, err := EncodeLimit(common.OpPutReq, make([]byte, 16), 16); err != nil {
		t.Errorf("Payload at the limit should encode, got %v", err)
	}
}

func TestWriteFrameMatchesEncode(t *testing.T) {
	payload := []byte("payload")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, common.OpDelReq, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	frame, _ := Encode(common.OpDelReq, payload)
	if !bytes.Equal(buf.Bytes(), frame) {
		t.Errorf("WriteFrame and Encode disagree:\n%v\n%v", buf.Bytes(), frame)
	}
}
