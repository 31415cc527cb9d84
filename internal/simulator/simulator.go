// Package simulator serves a scripted collector over TCP so the monitor
// can be exercised on a bench with no aircraft attached. One port speaks
// the trigger/record wire protocol; a second accepts line commands that
// inject motor failures into the shared decoder.
package simulator

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/collector"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc"
)

// Server answers monitor connections with a collector session each. The
// decoder is shared across sessions, so a failure scripted through the
// control port survives monitor reconnects.
type Server struct {
	dec    esc.Decoder
	motors int
	cycle  time.Duration
}

// NewServer builds a server around dec. cycle paces each session's
// collector loop; zero picks the collector default.
func NewServer(dec esc.Decoder, motors int, cycle time.Duration) *Server {
	return &Server{dec: dec, motors: motors, cycle: cycle}
}

// Serve accepts sessions on ln until ctx is canceled. Sessions run one at
// a time: the wire stands in for a serial port, and a serial port has one
// far end. A waiting client sits in the accept backlog until the current
// monitor hangs up.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
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
			log.Printf("simulator: accept: %v", err)
			continue
		}

		log.Printf("simulator: monitor connected from %s", conn.RemoteAddr())
		s.session(ctx, conn)
		log.Printf("simulator: session from %s ended", conn.RemoteAddr())
	}
}

func (s *Server) session(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	col, err := collector.New(collector.Config{
		Decoder:       s.dec,
		Link:          conn,
		Motors:        s.motors,
		CycleInterval: s.cycle,
	})
	if err != nil {
		log.Printf("simulator: session setup: %v", err)
		return
	}

	if err := col.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("simulator: session: %v", err)
	}
}
