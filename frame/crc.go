package frame

import "github.com/goblimey/go-crc24q/crc24q"

// ValidCRC reports whether an RTCM3 frame's trailing 24-bit CRC matches
// the CRC-24Q of the preamble, length and payload that precede it.  The
// Caster forwards RTCM3 unvalidated by default (spec.md §7: "full RTCM3
// CRC validation" is a non-goal); this is the hook an implementer can wire
// behind a flag, per the Open Question in spec.md §9.
//
// f must be a frame previously returned by Framer.Next with Kind == RTCM3;
// ValidCRC does not re-check the frame shape.
func ValidCRC(f Frame) bool {
	if len(f.Data) < rtcm3LeaderLen+rtcm3CRCLen {
		return false
	}

	crcHiByte := f.Data[len(f.Data)-3]
	crcMiByte := f.Data[len(f.Data)-2]
	crcLoByte := f.Data[len(f.Data)-1]

	headerAndMessage := f.Data[:len(f.Data)-rtcm3CRCLen]
	newCRC := crc24q.Hash(headerAndMessage)

	return crc24q.HiByte(newCRC) == crcHiByte &&
		crc24q.MiByte(newCRC) == crcMiByte &&
		crc24q.LoByte(newCRC) == crcLoByte
}
