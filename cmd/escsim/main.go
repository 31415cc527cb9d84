// Package main implements escsim, a bench stand-in for the aircraft side:
// a scripted collector on one TCP port (or stdio) and a failure-injection
// console on another, sharing one fake decoder.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/collector"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/config"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc/fake"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/simulator"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	stdio := flag.Bool("stdio", false, "serve records on stdin/stdout instead of TCP")
	flag.Parse()

	log.Println("Starting ESC telemetry simulator...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dec := fake.New(cfg.Motors)
	ctrl := simulator.NewControl(dec)

	ctrlLn, err := net.Listen("tcp", cfg.Sim.ControlBind)
	if err != nil {
		log.Fatalf("Failed to listen on control port %s: %v", cfg.Sim.ControlBind, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 2)
	pending := 2

	if *stdio {
		go func() {
			log.Printf("Serving %d motors on stdio", cfg.Motors)
			errs <- runStdio(ctx, dec, cfg)
		}()
	} else {
		srv := simulator.NewServer(dec, cfg.Motors, cfg.Sim.CycleInterval())
		linkLn, err := net.Listen("tcp", cfg.Sim.LinkBind)
		if err != nil {
			log.Fatalf("Failed to listen on link port %s: %v", cfg.Sim.LinkBind, err)
		}
		go func() {
			log.Printf("Serving %d motors on %s", cfg.Motors, cfg.Sim.LinkBind)
			errs <- srv.Serve(ctx, linkLn)
		}()
	}

	go func() {
		log.Printf("Control console on %s", cfg.Sim.ControlBind)
		errs <- ctrl.Serve(ctx, ctrlLn)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
	case err := <-errs:
		pending--
		if err != nil {
			log.Printf("Server failed: %v", err)
		}
	}

	cancel()
	for ; pending > 0; pending-- {
		if err := <-errs; err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}

	if err := dec.Close(); err != nil {
		log.Printf("Decoder shutdown error: %v", err)
	}
	log.Println("Simulator stopped")
}

// runStdio drives one collector session over the process pipes. EOF on
// stdin ends the session cleanly, same as a monitor hanging up. Log output
// stays on stderr, so stdout carries records alone.
func runStdio(ctx context.Context, dec esc.Decoder, cfg *config.Config) error {
	col, err := collector.New(collector.Config{
		Decoder:       dec,
		Link:          stdioLink{},
		Motors:        cfg.Motors,
		CycleInterval: cfg.Sim.CycleInterval(),
	})
	if err != nil {
		return err
	}
	if err := col.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// stdioLink joins stdin and stdout into the collector's byte link.
type stdioLink struct{}

func (stdioLink) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioLink) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
