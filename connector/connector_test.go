package connector

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func serveOnce(t *testing.T, response string, captured chan<- string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer ln.Close()

		reader := bufio.NewReader(conn)
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			lines = append(lines, strings.TrimRight(line, "\r\n"))
			if err != nil || line == "\r\n" || line == "\n" {
				break
			}
		}
		captured <- strings.Join(lines, "|")
		conn.Write([]byte(response))
	}()
	return ln.Addr().String()
}

func TestDialClientAccepted(t *testing.T) {
	captured := make(chan string, 1)
	addr := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: gnss/data\r\n\r\n", captured)

	conn, err := Dial(context.Background(), Options{
		Role:       RoleClient,
		Address:    addr,
		Mountpoint: "MOUNT1",
		UserName:   "user",
		Password:   "pass",
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	req := <-captured
	if !strings.HasPrefix(req, "GET /MOUNT1 HTTP/1.1") {
		t.Fatalf("unexpected request: %q", req)
	}
	if !strings.Contains(req, "Authorization: Basic") {
		t.Fatalf("missing Authorization header: %q", req)
	}
}

func TestDialServerAccepted(t *testing.T) {
	captured := make(chan string, 1)
	addr := serveOnce(t, "HTTP/1.1 200 OK\r\n\r\n", captured)

	conn, err := Dial(context.Background(), Options{
		Role:       RoleServer,
		Address:    addr,
		Mountpoint: "MOUNT1",
		UserName:   "producer",
		Password:   "secret",
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	req := <-captured
	if !strings.HasPrefix(req, "POST /MOUNT1 HTTP/1.1") {
		t.Fatalf("unexpected request: %q", req)
	}
}

func TestDialRejected(t *testing.T) {
	captured := make(chan string, 1)
	addr := serveOnce(t, "HTTP/1.1 409 Mountpoint Conflict\r\n\r\n", captured)

	_, err := Dial(context.Background(), Options{
		Role:       RoleServer,
		Address:    addr,
		Mountpoint: "MOUNT1",
		Password:   "wrong",
	})
	if err == nil {
		t.Fatalf("expected rejection error")
	}
}

func TestDialAcceptsAnyLineEndingIn200OK(t *testing.T) {
	captured := make(chan string, 1)
	addr := serveOnce(t, "SOURCETABLE 200 OK\r\nContent-Type: text/plain\r\n\r\n", captured)

	conn, err := Dial(context.Background(), Options{Role: RoleClient, Address: addr, Mountpoint: ""})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()
}

func TestDialUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Dial(ctx, Options{Role: RoleClient, Address: addr, Mountpoint: "X"}); err == nil {
		t.Fatalf("expected dial error for closed listener")
	}
}
