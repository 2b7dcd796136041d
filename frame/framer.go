package frame

import (
	"bytes"
	"errors"
)

// maxBufferLen bounds the Framer's internal buffer.  A GNSS receiver that
// stops sending whole frames (a dead UART, a device stuck mid-reset)
// should not let the buffer grow without limit.
const maxBufferLen = 2048

// compactThreshold is the cursor position at which the unparsed tail of
// the buffer is moved back to the start, so a long-running Framer doesn't
// keep reallocating ever-larger slices.
const compactThreshold = 512

// maxNMEALen is the longest NMEA 0183 sentence this Framer will accept,
// including the leading '$' and trailing "\r\n".
const maxNMEALen = 82

// minRTCM3PayloadLen and maxRTCM3PayloadLen bound the payload length field
// of an RTCM3 frame (a 10-bit unsigned value, but zero is never valid).
const (
	minRTCM3PayloadLen = 1
	maxRTCM3PayloadLen = 1023
)

const (
	rtcm3LeaderLen = 3 // preamble byte + 2 length bytes
	rtcm3CRCLen    = 3
)

// ErrOverflow is returned by Feed when appending would grow the buffer
// past maxBufferLen.  The Framer resets itself before returning it: the
// caller has lost whatever was buffered, but can keep feeding new bytes.
var ErrOverflow = errors.New("frame: buffer overflow, framer reset")

// Framer turns a stream of bytes fed to it in arbitrary chunks into a
// sequence of whole Frames.  It owns an append-only buffer and a parse
// cursor; it is not safe for concurrent use by more than one goroutine,
// matching the "one framer per byte stream" ownership rule.
type Framer struct {
	buf    []byte
	cursor int
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Feed appends data to the Framer's internal buffer.  It returns
// ErrOverflow, and resets the Framer, if the buffer would exceed
// maxBufferLen bytes.
func (f *Framer) Feed(data []byte) error {
	if len(f.buf)+len(data) > maxBufferLen {
		f.reset()
		return ErrOverflow
	}
	f.buf = append(f.buf, data...)
	return nil
}

func (f *Framer) reset() {
	f.buf = nil
	f.cursor = 0
}

// Next returns the next complete frame in the buffer, or ok == false if
// more bytes are needed before one can be extracted.  Noise bytes ahead of
// a frame are silently discarded.
func (f *Framer) Next() (frame Frame, ok bool) {
	for {
		if f.cursor >= len(f.buf) {
			f.compact()
			return Frame{}, false
		}

		lead := f.buf[f.cursor]
		switch lead {
		case '$':
			fr, advanced, done := f.scanNMEA()
			if done {
				if advanced {
					f.compact()
					return fr, true
				}
				f.compact()
				return Frame{}, false
			}
			// noise: cursor already advanced by one inside scanNMEA.
		case 0xD3:
			fr, advanced, done := f.scanRTCM3()
			if done {
				if advanced {
					f.compact()
					return fr, true
				}
				f.compact()
				return Frame{}, false
			}
			// noise: cursor already advanced by one inside scanRTCM3.
		default:
			f.cursor++
		}
	}
}

// scanNMEA attempts to extract an NMEA sentence starting at the cursor.
// done is true when the caller should stop looping (either a frame was
// produced, or more bytes are genuinely needed); done is false when the
// byte was noise and the scan should continue.
func (f *Framer) scanNMEA() (fr Frame, produced bool, done bool) {
	tail := f.buf[f.cursor:]
	idx := bytes.Index(tail, []byte("\r\n"))
	if idx != -1 {
		sentenceLen := idx + 2
		if sentenceLen <= maxNMEALen {
			fr = Frame{Kind: NMEA, Data: clone(tail[:sentenceLen])}
			f.cursor += sentenceLen
			return fr, true, true
		}
		// Terminator found, but too far away to be a real sentence: noise.
		f.cursor++
		return Frame{}, false, false
	}

	if len(tail) > maxNMEALen {
		// No terminator within reach; the '$' can't be a real sentence.
		f.cursor++
		return Frame{}, false, false
	}

	// The terminator might still arrive with more bytes.
	return Frame{}, false, true
}

// scanRTCM3 attempts to extract an RTCM3 message starting at the cursor.
// Same done/produced contract as scanNMEA.
func (f *Framer) scanRTCM3() (fr Frame, produced bool, done bool) {
	tail := f.buf[f.cursor:]
	if len(tail) < rtcm3LeaderLen {
		return Frame{}, false, true
	}

	payloadLen := (int(tail[1]&0x03) << 8) | int(tail[2])
	if payloadLen < minRTCM3PayloadLen || payloadLen > maxRTCM3PayloadLen {
		f.cursor++
		return Frame{}, false, false
	}

	total := rtcm3LeaderLen + payloadLen + rtcm3CRCLen
	if len(tail) < total {
		return Frame{}, false, true
	}

	fr = Frame{Kind: RTCM3, Data: clone(tail[:total])}
	f.cursor += total
	return fr, true, true
}

// compact moves the unparsed tail of the buffer back to the start once the
// cursor has drifted far enough to make that worthwhile, bounding steady
// state memory use without reallocating on every frame.
func (f *Framer) compact() {
	if f.cursor < compactThreshold {
		return
	}
	remaining := len(f.buf) - f.cursor
	copy(f.buf, f.buf[f.cursor:])
	f.buf = f.buf[:remaining]
	f.cursor = 0
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
