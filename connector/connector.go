// Package connector holds the dial/request/verify logic shared by the
// NTRIP client and server roles: opening a TCP connection to a caster,
// sending the NTRIP request line and headers, and checking the caster's
// response.  This generalizes connectToServer and connectToClient in
// apps/proxy/tcpprox.go from a fixed MITM relay pair into a reusable dial
// that builds its own HTTP-style NTRIP request instead of blindly relaying
// bytes between a fixed pair of sockets.
package connector

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dolmen-go/contextio"
)

// Role selects the HTTP method used in the request line: GET for an NTRIP
// Client pulling a stream, POST for an NTRIP Server publishing one.
type Role int

const (
	// RoleClient issues "GET /<mount> HTTP/1.1" to download a stream.
	RoleClient Role = iota
	// RoleServer issues "POST /<mount> HTTP/1.1" to publish a stream.
	RoleServer
)

func (r Role) method() string {
	if r == RoleServer {
		return "POST"
	}
	return "GET"
}

// ErrRejected is returned when the caster's response does not contain a
// line ending in the ASCII literal "200 OK".
var ErrRejected = errors.New("connector: caster rejected the request")

// maxHeaderBytes bounds how much of the response header block is read
// before giving up, per spec.md §4.3 ("read up to 2 KiB of response
// headers").
const maxHeaderBytes = 2048

// connectTimeout is the fixed dial timeout spec.md §4.3 specifies.
const connectTimeout = 10 * time.Second

// Options configures Dial.
type Options struct {
	Role       Role
	Address    string // host:port
	Mountpoint string
	UserName   string
	Password   string
	UserAgent  string
}

// Conn is an established, handshake-verified connection to a caster.
// Reader reads through a dolmen-go/contextio reader bound to Dial's ctx, so
// reads made through it honor ctx cancellation. Write, Read and Close on
// the embedded net.Conn go straight to the raw TCP connection and are not
// wrapped.
type Conn struct {
	net.Conn
	Reader *bufio.Reader
}

// Dial opens a TCP connection to opts.Address, sends the NTRIP request
// line and headers for opts.Role, and verifies the caster's response
// contains a line ending in "200 OK". The connect timeout is fixed at 10
// seconds per spec.md §4.3; callers control retry cadence via ctx and
// their own sleep between calls.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	dialer := net.Dialer{}

	raw, err := dialer.DialContext(dialCtx, "tcp", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("connector: dial %s: %w", opts.Address, err)
	}

	cr := contextio.NewReader(ctx, raw)
	cw := contextio.NewWriter(ctx, raw)

	if _, err := cw.Write(buildRequest(opts)); err != nil {
		raw.Close()
		return nil, fmt.Errorf("connector: sending request: %w", err)
	}

	reader := bufio.NewReader(cr)
	headers, err := readHeaderBlock(reader)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("connector: reading response: %w", err)
	}

	if !anyLineEndsInOK(headers) {
		raw.Close()
		return nil, fmt.Errorf("%w: %q", ErrRejected, firstLine(headers))
	}

	return &Conn{Conn: raw, Reader: reader}, nil
}

// buildRequest renders the NTRIP request line and headers per spec.md
// §4.3: "<METHOD> /<mount> HTTP/1.1\r\n" followed by Ntrip-Version,
// User-Agent, Authorization, Connection, and a blank line.
func buildRequest(opts Options) []byte {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "NTRIP ntrip-relay/1.0"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s /%s HTTP/1.1\r\n", opts.Role.method(), opts.Mountpoint)
	b.WriteString("Ntrip-Version: Ntrip/2.0\r\n")
	fmt.Fprintf(&b, "User-Agent: %s\r\n", userAgent)
	fmt.Fprintf(&b, "Authorization: Basic %s\r\n", basicAuth(opts.UserName, opts.Password))
	b.WriteString("Connection: keep-alive\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

// readHeaderBlock reads up to maxHeaderBytes, stopping early at the blank
// line terminating the header block if one arrives first.
func readHeaderBlock(r *bufio.Reader) (string, error) {
	var out strings.Builder
	for out.Len() < maxHeaderBytes {
		line, err := r.ReadString('\n')
		out.WriteString(line)
		if strings.TrimRight(line, "\r\n") == "" {
			return out.String(), nil
		}
		if err != nil {
			if out.Len() > 0 {
				return out.String(), nil
			}
			return "", err
		}
	}
	return out.String(), nil
}

// anyLineEndsInOK reports whether any line in the header block ends with
// the ASCII literal "200 OK", per spec.md §4.3's acceptance criterion.
func anyLineEndsInOK(headers string) bool {
	for _, line := range strings.Split(headers, "\n") {
		if strings.HasSuffix(strings.TrimRight(line, "\r\n"), "200 OK") {
			return true
		}
	}
	return false
}

func firstLine(headers string) string {
	if i := strings.IndexByte(headers, '\n'); i >= 0 {
		return strings.TrimRight(headers[:i], "\r\n")
	}
	return headers
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
