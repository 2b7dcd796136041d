// Package nmea provides the small set of NMEA 0183 utilities the relay
// needs: checksum calculation and the conversion of a vendor $PQTMEPE
// accuracy sentence into a standard $GPGST sentence.  It does not attempt
// to be a general NMEA parser.
package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned by ConvertPQTMEPEToGST when the input sentence
// cannot be parsed.  Per spec.md §7, this is never fatal: callers
// substitute an empty line and carry on.
var ErrMalformed = errors.New("nmea: malformed sentence")

// Checksum returns the two uppercase hex digits that are the XOR of every
// byte in body.  body is the sentence content between the leading '$' and
// the trailing '*', exclusive of both.
func Checksum(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// Build stamps body with a checksum and wraps it as a complete sentence:
// "$" + body + "*" + checksum + "\r\n".
func Build(body string) string {
	return "$" + body + "*" + Checksum(body) + "\r\n"
}

// ConvertPQTMEPEToGST builds a $GPGST sentence from a vendor
// $PQTMEPE,ver,epe_n,epe_e,epe_d,epe_2d,epe_3d*CS sentence, using utcTime
// (HHMMSS.ss, the third field of the most recently observed $GNRMC
// sentence) as the GST time field.  The mapping is approximate, per
// spec.md §4.2: rms=epe_2d, maj=epe_2d, smin=min(epe_n,epe_e), ori=0.0,
// lat_err=epe_n, lon_err=epe_e, alt_err=epe_d.
func ConvertPQTMEPEToGST(sentence, utcTime string) (string, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(sentence), "$")
	if !ok {
		return "", ErrMalformed
	}
	body, _, ok = strings.Cut(body, "*")
	if !ok {
		return "", ErrMalformed
	}

	fields := strings.Split(body, ",")
	if len(fields) != 7 || fields[0] != "PQTMEPE" {
		return "", ErrMalformed
	}

	epeN, errN := strconv.ParseFloat(fields[2], 64)
	epeE, errE := strconv.ParseFloat(fields[3], 64)
	epeD, errD := strconv.ParseFloat(fields[4], 64)
	epe2D, err2D := strconv.ParseFloat(fields[5], 64)
	if errN != nil || errE != nil || errD != nil || err2D != nil {
		return "", ErrMalformed
	}

	smin := epeN
	if epeE < smin {
		smin = epeE
	}

	gstBody := fmt.Sprintf("GPGST,%s,%.4f,%.4f,%.4f,%.1f,%.4f,%.4f,%.4f",
		utcTime, epe2D, epe2D, smin, 0.0, epeN, epeE, epeD)

	return Build(gstBody), nil
}
