package simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// idleTimeout bounds how long a control connection may sit silent. It is
// refreshed per command so an interactive session stays up.
const idleTimeout = 5 * time.Minute

// Scriptable is the failure-injection surface the control port drives.
// Motor arguments are 0-based channels here; the wire protocol takes the
// 1-based numbers operators use and converts.
type Scriptable interface {
	FailMotor(ch int) error
	SilenceMotor(ch int) error
	RestoreMotor(ch int) error
	ChannelState(ch int) string
	Channels() int
}

// Control serves the line protocol:
//
//	fail <n>     spin motor n down while its throttle holds
//	silence <n>  stop frames for motor n entirely
//	restore <n>  return motor n to its profile
//	status       report every motor's scripted state
//
// Each command answers with one line, "ok", a status report, or "err: ...".
type Control struct {
	dec Scriptable
}

// NewControl builds a control server over dec.
func NewControl(dec Scriptable) *Control {
	return &Control{dec: dec}
}

// Serve accepts control connections on ln until ctx is canceled. Unlike
// the wire port, multiple scripts may connect at once.
func (c *Control) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("simulator: control accept: %v", err)
			continue
		}
		go c.handle(conn)
	}
}

func (c *Control) handle(conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		if !sc.Scan() {
			return
		}
		reply := c.Dispatch(strings.TrimSpace(sc.Text()))
		if _, err := conn.Write(append([]byte(reply), '\n')); err != nil {
			return
		}
	}
}

// Dispatch executes one command line and returns the reply line.
func (c *Control) Dispatch(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "err: empty command"
	}

	switch fields[0] {
	case "status":
		var b strings.Builder
		for ch := 0; ch < c.dec.Channels(); ch++ {
			if ch > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%s", telemetry.MotorLabel(ch), c.dec.ChannelState(ch))
		}
		return b.String()

	case "fail", "silence", "restore":
		if len(fields) != 2 {
			return "err: usage: " + fields[0] + " <motor>"
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return "err: bad motor: " + fields[1]
		}

		ch := n - 1
		switch fields[0] {
		case "fail":
			err = c.dec.FailMotor(ch)
		case "silence":
			err = c.dec.SilenceMotor(ch)
		case "restore":
			err = c.dec.RestoreMotor(ch)
		}
		if err != nil {
			return "err: " + err.Error()
		}
		return "ok"

	default:
		return "err: unknown command: " + fields[0]
	}
}
