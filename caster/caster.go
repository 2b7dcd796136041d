// Package caster implements the NTRIP Caster: a TCP server that accepts
// connections from NTRIP Servers (producers, method POST) and NTRIP
// Clients (consumers, method GET), multiplexing each producer's RTCM3
// frames out to every consumer subscribed to the same mountpoint.
//
// This generalizes apps/proxy/tcpprox.go's StartClientListener/
// handleMessages from a fixed one-to-one MITM relay pair into a
// many-producers/many-consumers pub/sub fan-out keyed by mountpoint, the
// way spec.md §4.6 describes it.
package caster

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/goblimey/ntrip-relay/frame"
	"github.com/goblimey/ntrip-relay/sourcetable"
	"github.com/goblimey/ntrip-relay/status"
)

// maxRequestBytes bounds how much of an incoming request line + headers is
// read before giving up, per spec.md §4.6 ("read up to 1 KiB of request").
const maxRequestBytes = 1024

// maxFanoutReadBytes bounds a single read from a producer socket.
const maxFanoutReadBytes = 1024

// serverHeader is the literal Server header every successful and failing
// response carries, per spec.md §4.6.
const serverHeader = "Server: NTRIP ESP32_GPS/2.0"

// Credentials holds a single username/password pair.
type Credentials struct {
	UserName string
	Password string
}

// Options configures a Caster.
type Options struct {
	ListenAddress string
	Sourcetable   *sourcetable.Table

	ClientCreds Credentials
	ServerCreds Credentials

	// ValidateCRC turns on RTCM3 CRC-24Q validation of producer frames.
	// Off by default — see frame.ValidCRC and SPEC_FULL.md's resolution
	// of the CRC Open Question.
	ValidateCRC bool

	// ProbeInterval sets the liveness prober's period. Per spec.md §4.6
	// this must be between 5 and 10 seconds; SPEC_FULL.md fixes the
	// default at 7s.
	ProbeInterval time.Duration

	Logger *slog.Logger

	// Stats, if set, receives mountpoint lifecycle and traffic counters for
	// the optional status page. Nil disables stats collection.
	Stats *status.Feed
}

type mount struct {
	mu        sync.Mutex
	producer  net.Conn
	consumers map[net.Conn]struct{}
	cancel    context.CancelFunc
}

// Caster is a running (or not-yet-started) NTRIP caster instance.
type Caster struct {
	opts            Options
	sourcetableRaw  []byte
	allowedMounts   map[string]bool
	logger          *slog.Logger

	mu       sync.Mutex
	mounts   map[string]*mount
	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a Caster from opts. The sourcetable's mountpoint names become
// the allowed_mounts set checked on every GET/POST.
func New(opts Options) *Caster {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProbeInterval == 0 {
		opts.ProbeInterval = 7 * time.Second
	}

	allowed := make(map[string]bool)
	var raw []byte
	if opts.Sourcetable != nil {
		raw = opts.Sourcetable.Bytes()
		for _, name := range opts.Sourcetable.Mountpoints() {
			allowed[name] = true
		}
	}

	return &Caster{
		opts:           opts,
		sourcetableRaw: raw,
		allowedMounts:  allowed,
		logger:         logger,
		mounts:         make(map[string]*mount),
	}
}

// Run binds the listen address and serves forever until ctx is cancelled.
// On cancellation it closes the listener, every registered connection, and
// waits for all fan-out and prober tasks to exit before returning.
func (c *Caster) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("caster: listen %s: %w", c.opts.ListenAddress, err)
	}
	c.mu.Lock()
	c.listener = ln
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runProber(ctx)

	go func() {
		<-ctx.Done()
		ln.Close()
		c.closeAll()
	}()

	c.logger.Info("caster: listening", "address", c.opts.ListenAddress)

	for {
		conn, err := ln.Accept()
		if err != nil {
			c.wg.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleConn(ctx, conn)
		}()
	}
}

func (c *Caster) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.mounts {
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
		}
		if m.producer != nil {
			m.producer.Close()
		}
		for conn := range m.consumers {
			conn.Close()
		}
		m.mu.Unlock()
	}
}

func (c *Caster) handleConn(ctx context.Context, conn net.Conn) {
	buf := make([]byte, maxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		conn.Close()
		return
	}

	req, ok := parseRequest(buf[:n])
	if !ok {
		conn.Close()
		return
	}

	if req.Method == "GET" && req.Path == "/" {
		c.handleSourcetableRequest(conn)
		return
	}

	mountName := strings.TrimPrefix(req.Path, "/")

	switch req.Method {
	case "GET":
		c.handleGet(ctx, conn, mountName, req.AuthBasic)
	case "POST":
		c.handlePost(ctx, conn, mountName, req.AuthBasic)
	default:
		conn.Close()
	}
}

func (c *Caster) handleSourcetableRequest(conn net.Conn) {
	defer conn.Close()
	var b strings.Builder
	b.WriteString("SOURCETABLE 200 OK\r\n")
	b.WriteString(serverHeader + "\r\n")
	b.WriteString("Ntrip-Version: Ntrip/2.0\r\n")
	b.WriteString("Content-Type: text/plain\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(c.sourcetableRaw))
	b.WriteString("\r\n")
	conn.Write([]byte(b.String()))
	conn.Write(c.sourcetableRaw)
}

func (c *Caster) handleGet(ctx context.Context, conn net.Conn, mountName, authBasic string) {
	if !credentialsMatch(authBasic, c.opts.ClientCreds) {
		writeStatus(conn, "401 Invalid Username or Password")
		conn.Close()
		return
	}
	if !c.allowedMounts[mountName] {
		writeStatus(conn, "404 Invalid Mountpoint")
		conn.Close()
		return
	}

	c.mu.Lock()
	m, exists := c.mounts[mountName]
	c.mu.Unlock()
	if !exists {
		writeStatus(conn, "503 Mountpoint Unavailable")
		conn.Close()
		return
	}

	var b strings.Builder
	b.WriteString("HTTP/1.1 200 OK\r\n")
	b.WriteString(serverHeader + "\r\n")
	b.WriteString("Ntrip-Version: Ntrip/2.0\r\n")
	b.WriteString("Content-Type: gnss/data\r\n")
	b.WriteString("Connection: keep-alive\r\n")
	b.WriteString("\r\n")
	if _, err := conn.Write([]byte(b.String())); err != nil {
		conn.Close()
		return
	}

	m.mu.Lock()
	m.consumers[conn] = struct{}{}
	count := len(m.consumers)
	m.mu.Unlock()
	if c.opts.Stats != nil {
		c.opts.Stats.RecordConsumerCount(mountName, count)
	}
	c.logger.Info("caster: consumer attached", "mount", mountName, "remote", conn.RemoteAddr())
}

func (c *Caster) handlePost(ctx context.Context, conn net.Conn, mountName, authBasic string) {
	if !credentialsMatch(authBasic, c.opts.ServerCreds) {
		writeStatus(conn, "401 Invalid Username or Password")
		conn.Close()
		return
	}
	if !c.allowedMounts[mountName] {
		writeStatus(conn, "404 Invalid Mountpoint")
		conn.Close()
		return
	}

	c.mu.Lock()
	if _, exists := c.mounts[mountName]; exists {
		c.mu.Unlock()
		writeStatus(conn, "409 Mountpoint Conflict")
		conn.Close()
		return
	}

	mountCtx, cancel := context.WithCancel(ctx)
	m := &mount{producer: conn, consumers: make(map[net.Conn]struct{}), cancel: cancel}
	c.mounts[mountName] = m
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("HTTP/1.1 200 OK\r\n")
	b.WriteString(serverHeader + "\r\n")
	b.WriteString("Ntrip-Version: Ntrip/2.0\r\n")
	b.WriteString("\r\n")
	if _, err := conn.Write([]byte(b.String())); err != nil {
		c.dropMount(mountName)
		conn.Close()
		return
	}

	c.logger.Info("caster: producer attached", "mount", mountName, "remote", conn.RemoteAddr())
	if c.opts.Stats != nil {
		c.opts.Stats.RecordMountAttached(mountName)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runFanout(mountCtx, mountName, m)
	}()
}

// runFanout reads frames from the producer and writes each to every
// consumer of mountName, per spec.md §4.6's fan-out task description.
func (c *Caster) runFanout(ctx context.Context, mountName string, m *mount) {
	f := frame.New()
	buf := make([]byte, maxFanoutReadBytes)

	for {
		if ctx.Err() != nil {
			c.dropMount(mountName)
			return
		}

		n, err := m.producer.Read(buf)
		if n > 0 {
			if feedErr := f.Feed(buf[:n]); feedErr != nil {
				c.logger.Warn("caster: producer frame buffer overflow", "mount", mountName, "error", feedErr)
			}
			for {
				fr, ok := f.Next()
				if !ok {
					break
				}
				if !fr.IsRTCM3() {
					continue
				}
				if c.opts.ValidateCRC && !frame.ValidCRC(fr) {
					c.logger.Warn("caster: dropping RTCM3 frame with bad CRC", "mount", mountName)
					if c.opts.Stats != nil {
						c.opts.Stats.RecordFrameDropped(mountName)
					}
					continue
				}
				c.broadcast(mountName, m, fr.Data)
			}
		}
		if err != nil {
			c.logger.Info("caster: producer disconnected", "mount", mountName, "error", err)
			c.dropMount(mountName)
			return
		}
	}
}

func (c *Caster) broadcast(mountName string, m *mount, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := false
	for conn := range m.consumers {
		if _, err := conn.Write(data); err != nil {
			delete(m.consumers, conn)
			conn.Close()
			dropped = true
			c.logger.Info("caster: dropped consumer after write failure", "mount", mountName, "remote", conn.RemoteAddr())
		}
	}
	if c.opts.Stats != nil {
		c.opts.Stats.RecordFrameRelayed(mountName)
		if dropped {
			c.opts.Stats.RecordConsumerCount(mountName, len(m.consumers))
		}
	}
}

// dropMount detaches the producer and every consumer of mountName and
// removes the mount entry, per spec.md §4.6's PRODUCING->EMPTY transition.
func (c *Caster) dropMount(mountName string) {
	c.mu.Lock()
	m, exists := c.mounts[mountName]
	if exists {
		delete(c.mounts, mountName)
	}
	c.mu.Unlock()
	if !exists {
		return
	}
	if c.opts.Stats != nil {
		c.opts.Stats.RecordMountDetached(mountName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.producer.Close()
	for conn := range m.consumers {
		conn.Close()
	}
	m.consumers = nil
}

func writeStatus(conn net.Conn, statusLine string) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %s\r\n", statusLine)
	b.WriteString(serverHeader + "\r\n")
	b.WriteString("Ntrip-Version: Ntrip/2.0\r\n")
	b.WriteString("\r\n")
	conn.Write([]byte(b.String()))
}

func credentialsMatch(authBasic string, want Credentials) bool {
	if want.UserName == "" && want.Password == "" {
		// No credentials configured for this role: the caster doesn't
		// require authentication.
		return true
	}
	decoded, err := base64.StdEncoding.DecodeString(authBasic)
	if err != nil {
		return false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	return user == want.UserName && pass == want.Password
}
