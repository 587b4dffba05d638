package codec

// Decoder accumulates bytes read from a stream and cuts them into frames.
// It is not safe for concurrent use; a connection owns exactly one Decoder.
type Decoder struct {
	buf        []byte
	maxPayload uint32
}

// NewDecoder creates a decoder rejecting payloads larger than maxPayload
func NewDecoder(maxPayload uint32) *Decoder {
	return &Decoder{maxPayload: maxPayload}
}

// Feed appends freshly read bytes to the receive buffer
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete frame. ok is false if more bytes are needed.
// The returned payload is a copy and stays valid after further calls.
func (d *Decoder) Next() (f Frame, ok bool, err error) {
	frame, n, err := TryDecode(d.buf, d.maxPayload)
	if err != nil || n == 0 {
		return Frame{}, false, err
	}

	payload := make([]byte, len(frame.Payload))
	copy(payload, frame.Payload)

	// Discard the consumed bytes, reusing the backing array
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]

	return Frame{Op: frame.Op, Payload: payload}, true, nil
}

// Buffered returns the number of bytes received but not yet decoded
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset drops all buffered bytes
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}
