// Package main implements the escmon companion-computer entry point: it
// polls the ESC telemetry collector, classifies motor health, and serves
// the operator API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/api"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/auth"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/config"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/journal"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/metrics"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/recorder"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/transport"
)

const Version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	log.Printf("Starting ESC telemetry monitor v%s", Version)

	// Step 1: effective configuration (defaults, file, environment).
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded")

	// Step 2: event journal. Optional; an empty path keeps events off disk.
	var events monitor.EventSink
	var jl *journal.Logger
	if cfg.Journal.Path != "" {
		jl = journal.New(cfg.Journal.Path, cfg.Journal.MaxSizeMB, cfg.Journal.MaxBackups)
		events = jl
		log.Printf("Event journal at %s", cfg.Journal.Path)
	}

	// Step 3: Prometheus metrics on the default registry.
	stats := metrics.New(nil)

	// Step 4: collector link.
	link, err := transport.Open(cfg.Link.Endpoint, cfg.Link.Baud)
	if err != nil {
		log.Fatalf("Failed to open collector link %s: %v", cfg.Link.Endpoint, err)
	}
	log.Printf("Collector link open on %s", cfg.Link.Endpoint)

	// Step 5: state table and rule engine.
	table := monitor.NewTable(cfg.Motors, historyDepth(cfg))
	engine := health.NewEngine(cfg.Health.Limits())

	// Step 6: document sinks. Stdout always; the SSE stream only when the
	// API is enabled.
	docs := []monitor.DocSink{monitor.NewWriterSink(os.Stdout)}
	var stream *api.Stream
	if cfg.HTTP.Bind != "" {
		stream = api.NewStream()
		docs = append(docs, stream)
	}

	// Step 7: flight recorder. Optional, and a dead database never grounds
	// the monitor: run without persistence and say so.
	var transitions monitor.TransitionSink
	var rec *recorder.Recorder
	if cfg.Recorder.DSN != "" {
		rec, err = recorder.Open(cfg.Recorder.DSN)
		if err != nil {
			log.Printf("Recorder disabled: %v", err)
			rec = nil
		} else {
			transitions = rec
			log.Println("Recorder connected")
		}
	}

	// Step 8: the monitor itself.
	mon, err := monitor.New(monitor.Options{
		Link:             link,
		Table:            table,
		Engine:           engine,
		PollInterval:     cfg.Timing.PollInterval(),
		SnapshotInterval: cfg.Timing.SnapshotInterval(),
		ReadTimeout:      cfg.Link.ReadTimeout(),
		CommTimeout:      cfg.Timing.CommTimeout(),
		Trigger:          cfg.Link.TriggerByte(),
		Docs:             docs,
		Events:           events,
		Stats:            stats,
		Transitions:      transitions,
	})
	if err != nil {
		log.Fatalf("Failed to build monitor: %v", err)
	}

	// Step 9: operator API. Optional; bench runs often watch stdout alone.
	var server *api.Server
	if cfg.HTTP.Bind != "" {
		var mw *auth.Middleware
		if cfg.HTTP.AuthSecret != "" {
			verifier, err := auth.NewVerifier(cfg.HTTP.AuthSecret)
			if err != nil {
				log.Fatalf("Failed to build token verifier: %v", err)
			}
			mw = auth.NewMiddleware(verifier)
		} else {
			log.Println("API auth disabled: no secret configured")
		}
		server = api.NewServer(table, stream, mw)

		go func() {
			log.Printf("API server on %s", cfg.HTTP.Bind)
			if err := server.Start(cfg.HTTP.Bind); err != nil {
				log.Fatalf("API server failed: %v", err)
			}
		}()
	}

	// Step 10: run until a signal or a monitor failure.
	ctx, cancel := context.WithCancel(context.Background())
	monDone := make(chan error, 1)
	go func() { monDone <- mon.Run(ctx) }()
	log.Printf("Monitoring %d motors, polling every %v", cfg.Motors, cfg.Timing.PollInterval())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
		cancel()
		if err := <-monDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Monitor stopped with error: %v", err)
		}
	case err := <-monDone:
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Monitor failed: %v", err)
		}
	}

	// Graceful teardown, noisiest problems first.
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Stop(shutdownCtx); err != nil {
			log.Printf("Error stopping API server: %v", err)
		}
		shutdownCancel()
	}
	if err := link.Close(); err != nil {
		log.Printf("Error closing collector link: %v", err)
	}
	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Printf("Error closing recorder: %v", err)
		}
	}
	if jl != nil {
		if err := jl.Close(); err != nil {
			log.Printf("Error closing event journal: %v", err)
		}
	}

	log.Println("Monitor shutdown complete")
}

// historyDepth sizes the per-motor RPM history for the stuck-rotor check.
// Sized so the buffer spans the whole window even if every poll landed on
// the same motor; the real per-motor rate is one lap per refresh.
func historyDepth(cfg *config.Config) int {
	window := cfg.Health.Limits().StuckRPMWindow
	if window <= 0 {
		return 0
	}
	poll := cfg.Timing.PollInterval()
	if poll <= 0 {
		poll = monitor.DefaultPollInterval
	}
	return int(window/poll) + 2
}
