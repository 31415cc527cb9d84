// Package transport opens the byte link between monitor and collector.
// Endpoints are either "tcp://host:port" (simulator, ser2net bridges) or a
// serial device path opened at the configured baud rate, 8N1.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.bug.st/serial"
)

const dialTimeout = 5 * time.Second

// ErrBadEndpoint reports an endpoint string Open cannot interpret.
var ErrBadEndpoint = errors.New("BAD_ENDPOINT")

// Conn is a byte link with a read deadline, which is the one control both
// net.Conn and a serial port can honor.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Open dials endpoint. The caller owns the returned Conn and closes it on
// shutdown; a failure here is a startup failure, not something to retry.
func Open(endpoint string, baud int) (Conn, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrBadEndpoint)
	}

	if strings.HasPrefix(endpoint, "tcp://") {
		addr := strings.TrimPrefix(endpoint, "tcp://")
		if addr == "" {
			return nil, fmt.Errorf("%w: %q has no address", ErrBadEndpoint, endpoint)
		}
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn, nil
	}

	if baud <= 0 {
		return nil, fmt.Errorf("%w: baud rate %d for device %s", ErrBadEndpoint, baud, endpoint)
	}
	port, err := serial.Open(endpoint, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", endpoint, err)
	}
	return &serialConn{port: port}, nil
}

// serialConn adapts a serial port to the deadline contract.
type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialConn) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialConn) Close() error                { return s.port.Close() }

// SetReadDeadline maps the absolute deadline onto the port's relative read
// timeout. A zero deadline restores blocking reads.
func (s *serialConn) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	return s.port.SetReadTimeout(d)
}
