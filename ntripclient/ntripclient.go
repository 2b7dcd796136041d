// Package ntripclient implements the download direction of the relay: a
// long-lived connection to an upstream caster that streams RTCM3/NMEA
// bytes, reconnecting on failure.  It generalizes de-bkg-gognss's
// pkg/ntrip/client.go (GetStream/do/Reconnect) from net/http's chunked
// GET onto the relay's raw connector.Dial, since a caster's data stream
// is not itself chunk-encoded once the handshake completes.
package ntripclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goblimey/ntrip-relay/connector"
)

// connectRetrySleep is the pause after a failed connection attempt, per
// spec.md §4.3 ("sleep 3 seconds, retry indefinitely").
const connectRetrySleep = 3 * time.Second

// streamLossSleep is the pause after a connected stream ends (zero-length
// read or error), per spec.md §4.4 ("sleeps 1 second, reconnects"). This is
// shorter than connectRetrySleep because losing an established stream is a
// routine event for the Client, not a sign the caster is unreachable.
const streamLossSleep = 1 * time.Second

// chunkSize bounds a single read from the stream to the size spec.md §4.4
// hands callers: "received byte chunks of up to 128 bytes each".
const chunkSize = 128

// Client downloads a single mountpoint's stream from an upstream caster,
// automatically reconnecting when the connection drops.
type Client struct {
	opts   connector.Options
	logger *slog.Logger

	conn *connector.Conn
}

// New builds a Client for the given dial options. logger may be nil.
func New(opts connector.Options, logger *slog.Logger) *Client {
	opts.Role = connector.RoleClient
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: opts, logger: logger}
}

// Connect dials the caster and verifies the handshake.  It does not retry;
// callers that want indefinite retry should use Run.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := connector.Dial(ctx, c.opts)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Read reads raw stream bytes directly from the underlying connection.
// It does not reconnect on error; callers needing resilience should drive
// reconnection through Run or call Connect again after an error.
func (c *Client) Read(p []byte) (int, error) {
	if c.conn == nil {
		return 0, errors.New("ntripclient: not connected")
	}
	return c.conn.Reader.Read(p)
}

// Close closes the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run connects and calls onBytes for every chunk read from the stream,
// reconnecting whenever the connection drops, until ctx is cancelled. It
// sleeps connectRetrySleep after a failed connect and streamLossSleep after
// a lost stream.  This is the resilient
// counterpart to de-bkg-gognss's Reconnect: instead of handing the caller
// a fresh io.ReadCloser to retry with, it owns the retry loop itself.
func (c *Client) Run(ctx context.Context, onBytes func([]byte)) error {
	buf := make([]byte, chunkSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.Connect(ctx); err != nil {
			c.logger.Warn("ntripclient: connect failed, retrying", "error", err, "mountpoint", c.opts.Mountpoint)
			if !sleepOrDone(ctx, connectRetrySleep) {
				return ctx.Err()
			}
			continue
		}

		c.logger.Info("ntripclient: connected", "mountpoint", c.opts.Mountpoint, "address", c.opts.Address)

		for {
			n, err := c.conn.Reader.Read(buf)
			if n > 0 {
				onBytes(buf[:n])
			}
			if err != nil {
				c.conn.Close()
				c.conn = nil
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("ntripclient: stream lost, reconnecting", "error", err, "mountpoint", c.opts.Mountpoint)
				break
			}
		}

		if !sleepOrDone(ctx, streamLossSleep) {
			return ctx.Err()
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
