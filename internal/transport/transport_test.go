package transport

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestOpenRejectsBadEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		baud     int
	}{
		{"empty endpoint", "", 1000000},
		{"tcp without address", "tcp://", 0},
		{"device without baud", "/dev/ttyACM0", 0},
		{"device with negative baud", "/dev/ttyACM0", -9600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Open(tt.endpoint, tt.baud)
			if err == nil {
				conn.Close()
				t.Fatalf("Open(%q, %d) succeeded", tt.endpoint, tt.baud)
			}
			if !errors.Is(err, ErrBadEndpoint) {
				t.Errorf("error %v does not wrap ErrBadEndpoint", err)
			}
		})
	}
}

func TestOpenMissingSerialDeviceFails(t *testing.T) {
	if _, err := Open("testdata/no-such-tty", 1000000); err == nil {
		t.Fatal("Open on a missing device succeeded")
	}
}

func TestOpenTCPEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	conn, err := Open("tcp://"+ln.Addr().String(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	peer := <-accepted
	defer peer.Close()

	if _, err := conn.Write([]byte{'0'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := peer.Read(buf); err != nil || buf[0] != '0' {
		t.Fatalf("peer read = %q, %v", buf, err)
	}
}

func TestTCPReadDeadlineExpires(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			// Hold the connection open without writing.
			time.Sleep(200 * time.Millisecond)
		}
	}()

	conn, err := Open("tcp://"+ln.Addr().String(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(20 * time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}

	buf := make([]byte, 1)
	start := time.Now()
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("read returned without data before the deadline")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("read blocked %v past a 20ms deadline", elapsed)
	}
}
