// Package sourcetable builds and parses NTRIP sourcetables: the
// CRLF-terminated catalogue of a caster's mountpoints that spec.md §3
// describes, terminated by the literal line "ENDSOURCETABLE".
//
// This mirrors the typed Sourcetable/Stream representation in
// de-bkg-gognss's pkg/ntrip/client.go: a Stream holds the fields of one STR
// record. The Caster only cares about the STR records' mountpoint names
// (spec.md §3); the other fields are rendered into each STR line for any
// client that downloads the table.
package sourcetable

import (
	"fmt"
	"strings"
)

// Stream describes one advertised mountpoint.
type Stream struct {
	Mountpoint    string
	Identifier    string
	Format        string
	FormatDetails string
	Carrier       int
	NavSystem     string
	Network       string
	Country       string
	Latitude      float64
	Longitude     float64
	NMEA          bool
	Solution      int
	Generator     string
	Compression   string
	Auth          string
	Fee           bool
	Bitrate       int
	Misc          string
}

// Table is the in-memory form of a sourcetable.
type Table struct {
	CasterIdentifier string
	Streams          []Stream
}

// New creates an empty Table for the given caster identifier.
func New(casterIdentifier string) *Table {
	return &Table{CasterIdentifier: casterIdentifier}
}

// Add registers a stream in the table.
func (t *Table) Add(s Stream) {
	t.Streams = append(t.Streams, s)
}

// Mountpoints returns the set of mountpoint names advertised by the table,
// in the order they were added — this is what the Caster loads into its
// allowed_mounts set at startup.
func (t *Table) Mountpoints() []string {
	names := make([]string, len(t.Streams))
	for i, s := range t.Streams {
		names[i] = s.Mountpoint
	}
	return names
}

// Bytes renders the table as the CRLF-terminated wire format: one STR
// line per stream, ending with the literal line ENDSOURCETABLE.
func (t *Table) Bytes() []byte {
	var b strings.Builder
	for _, s := range t.Streams {
		fmt.Fprintf(&b, "STR;%s;%s;%s;%s;%d;%s;%s;%s;%.4f;%.4f;%d;%d;%s;%s;%s;%s;%d;%s\r\n",
			s.Mountpoint, s.Identifier, s.Format, s.FormatDetails, s.Carrier, s.NavSystem,
			s.Network, s.Country, s.Latitude, s.Longitude, boolField(s.NMEA), s.Solution,
			s.Generator, s.Compression, s.Auth, feeField(s.Fee), s.Bitrate, s.Misc)
	}
	b.WriteString("ENDSOURCETABLE\r\n")
	return []byte(b.String())
}

// Mountpoints extracts the set of mountpoint names from a raw sourcetable
// byte blob, per spec.md §3: "the Caster extracts the set of advertised
// mountpoint names from the first field after STR;". It does not require
// the other STR fields to be well formed.
func Mountpoints(raw []byte) []string {
	var names []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "STR;") {
			continue
		}
		fields := strings.SplitN(line, ";", 3)
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		names = append(names, fields[1])
	}
	return names
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}

func feeField(fee bool) string {
	if fee {
		return "Y"
	}
	return "N"
}
