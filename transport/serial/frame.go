// Package serial carries lens commands over a byte stream. Each command is
// one frame: a length byte (1..MaxFrame) followed by that many payload
// bytes. A zero length byte is a no-op a sender can use to resync.
package serial

import "lenscode-go/errcode"

// MaxFrame is the largest payload accepted, well above the longest command.
const MaxFrame = 32

// Encode frames payload for the wire.
func Encode(payload []byte) ([]byte, error) {
	switch {
	case len(payload) == 0:
		return nil, errcode.EmptyCommand
	case len(payload) > MaxFrame:
		return nil, errcode.FrameTooLong
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, byte(len(payload)))
	return append(out, payload...), nil
}

// Decoder reassembles frames from arbitrary read chunks.
// It is not safe for concurrent use.
type Decoder struct {
	buf  [MaxFrame]byte
	want int // payload bytes expected; 0 = waiting for a length byte
	have int
	skip int // bytes left of an oversize frame

	Dropped int // oversize frames skipped so far
}

// Feed consumes chunk and calls fn for each complete frame. The slice passed
// to fn is only valid for the duration of the call.
func (d *Decoder) Feed(chunk []byte, fn func(frame []byte)) {
	for _, b := range chunk {
		switch {
		case d.skip > 0:
			d.skip--
		case d.want == 0:
			n := int(b)
			switch {
			case n == 0:
				// resync
			case n > MaxFrame:
				d.skip = n
				d.Dropped++
			default:
				d.want, d.have = n, 0
			}
		default:
			d.buf[d.have] = b
			d.have++
			if d.have == d.want {
				d.want = 0
				fn(d.buf[:d.have])
			}
		}
	}
}

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.want, d.have, d.skip = 0, 0, 0
}
