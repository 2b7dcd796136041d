// Package frame extracts whole NMEA sentences and RTCM3 messages from a
// raw byte stream, such as the one coming off a GNSS receiver's UART.  The
// receiver multiplexes both protocols onto the same stream, so a single
// scanner has to recognise both frame shapes and discard anything else as
// noise.
package frame

import "fmt"

// Kind identifies the protocol a Frame was decoded as.
type Kind int

const (
	// NMEA is an ASCII sentence of the form "$<body>*<XX>\r\n".
	NMEA Kind = iota
	// RTCM3 is a binary message starting 0xD3, length-prefixed, CRC-terminated.
	RTCM3
)

func (k Kind) String() string {
	switch k {
	case NMEA:
		return "NMEA"
	case RTCM3:
		return "RTCM3"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Frame is a single decoded message.  Data is the exact bytes of the frame,
// including its delimiters (the "$...\r\n" envelope for NMEA, the 0xD3
// header and trailing CRC for RTCM3).  Callers must treat Data as
// read-only; the Framer never hands out a slice it intends to reuse.
type Frame struct {
	Kind Kind
	Data []byte
}

// IsRTCM3 reports whether the frame carries an RTCM3 message, the only
// kind the Caster's fan-out and the NTRIP Server's SendQueue accept.
func (f Frame) IsRTCM3() bool {
	return f.Kind == RTCM3
}
