package nmea

import (
	"strings"
	"testing"
)

func TestChecksum(t *testing.T) {
	// $GPGGA,...*4F is a commonly cited worked example for NMEA checksums.
	body := "GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031"
	if got := Checksum(body); got != "4F" {
		t.Fatalf("Checksum() = %q, want 4F", got)
	}
}

func TestBuildRoundTrips(t *testing.T) {
	sentence := Build("GPGST,104548.04,1.2,1.0,0.8,90.0,1.0,0.8,2.2")
	if !strings.HasPrefix(sentence, "$GPGST,") {
		t.Fatalf("unexpected prefix: %q", sentence)
	}
	if !strings.HasSuffix(sentence, "\r\n") {
		t.Fatalf("missing CRLF terminator: %q", sentence)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(sentence, "$"), "\r\n")
	parts := strings.SplitN(body, "*", 2)
	if len(parts) != 2 {
		t.Fatalf("missing checksum separator: %q", sentence)
	}
	if Checksum(parts[0]) != parts[1] {
		t.Fatalf("checksum mismatch: body %q claims %q, computed %q", parts[0], parts[1], Checksum(parts[0]))
	}
}

func TestConvertPQTMEPEToGST(t *testing.T) {
	sentence := "$PQTMEPE,2,0.0120,0.0150,0.0300,0.0192,0.0360*4B"
	gst, err := ConvertPQTMEPEToGST(sentence, "104548.04")
	if err != nil {
		t.Fatalf("ConvertPQTMEPEToGST: %v", err)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(gst, "$"), "\r\n")
	parts := strings.SplitN(body, "*", 2)
	if len(parts) != 2 {
		t.Fatalf("missing checksum separator: %q", gst)
	}
	if Checksum(parts[0]) != parts[1] {
		t.Fatalf("checksum mismatch: body %q claims %q, computed %q", parts[0], parts[1], Checksum(parts[0]))
	}
	if !strings.HasPrefix(parts[0], "GPGST,104548.04,") {
		t.Fatalf("unexpected GST body: %q", parts[0])
	}
}

func TestConvertPQTMEPEToGSTMalformed(t *testing.T) {
	cases := []string{
		"not a sentence",
		"$PQTMEPE,2,bad,0.0150,0.0300,0.0192,0.0360*00",
		"$GNRMC,104548.04,A*00",
	}
	for _, c := range cases {
		if _, err := ConvertPQTMEPEToGST(c, "104548.04"); err != ErrMalformed {
			t.Errorf("ConvertPQTMEPEToGST(%q) error = %v, want ErrMalformed", c, err)
		}
	}
}
