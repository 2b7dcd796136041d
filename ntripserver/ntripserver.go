// Package ntripserver implements the upload direction of the relay: a
// receiver-facing producer feeds frames into a bounded SendQueue, and a
// goroutine drains the queue to an upstream caster, reconnecting on
// failure and re-queuing whatever frame was in flight when the connection
// dropped.  The write-and-retry loop generalizes
// apps/proxy/tcpprox.go's handleClientMessages (which relays a live
// connection byte-for-byte) into a queue-backed sender that can survive a
// caster outage without losing frames already accepted from the producer.
package ntripserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/goblimey/ntrip-relay/connector"
)

// reconnectSleep is the pause after a failed connect and after a write
// failure mid-stream, per spec.md §4.3/§4.5 (both are specified as "sleep 3
// seconds, reconnect").
const reconnectSleep = 3 * time.Second

// Server drains a SendQueue to an upstream caster mountpoint.
type Server struct {
	opts  connector.Options
	queue *SendQueue
	log   *slog.Logger

	conn *connector.Conn
}

// New builds a Server for the given dial options and queue. logger may be
// nil.
func New(opts connector.Options, queue *SendQueue, logger *slog.Logger) *Server {
	opts.Role = connector.RoleServer
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, queue: queue, log: logger}
}

// Enqueue offers a frame to the outbound queue.  It never blocks: under
// sustained backpressure the queue drops its oldest entry.
func (s *Server) Enqueue(frame []byte) {
	s.queue.Push(frame)
}

// Run connects to the caster and drains the queue until ctx is cancelled.
// On a write failure it closes the connection, re-queues the in-flight
// frame at the front of the queue, sleeps, and reconnects.
func (s *Server) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := connector.Dial(ctx, s.opts)
		if err != nil {
			s.log.Warn("ntripserver: connect failed, retrying", "error", err, "mountpoint", s.opts.Mountpoint)
			if !sleepOrDone(ctx, reconnectSleep) {
				return ctx.Err()
			}
			continue
		}
		s.conn = conn
		s.log.Info("ntripserver: connected", "mountpoint", s.opts.Mountpoint, "address", s.opts.Address)

		if err := s.drain(ctx); err != nil {
			s.conn.Close()
			s.conn = nil
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("ntripserver: connection lost, reconnecting", "error", err, "mountpoint", s.opts.Mountpoint)
			if !sleepOrDone(ctx, reconnectSleep) {
				return ctx.Err()
			}
		}
	}
}

// drain pulls frames off the queue and writes them to the caster until ctx
// is cancelled or a write fails, waking on the queue's signal channel
// rather than polling. A write failure re-queues the frame at the front
// before returning, so the reconnect loop retries it first.
func (s *Server) drain(ctx context.Context) error {
	for {
		frame, ok := s.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-s.queue.Signal():
				continue
			}
		}

		if _, err := s.conn.Write(frame); err != nil {
			s.queue.PushFront(frame)
			return err
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
