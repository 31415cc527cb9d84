package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc"
)

func TestPollReturnsProfileReadings(t *testing.T) {
	d := New(4)
	defer d.Close()

	frame, err := d.Poll(context.Background(), 2)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	p := DefaultProfile(2)
	if frame.ThrottleOut != p.ThrottleOut {
		t.Errorf("ThrottleOut = %v, want %v", frame.ThrottleOut, p.ThrottleOut)
	}
	if frame.RPM < p.RPM || frame.RPM > p.RPM+10 {
		t.Errorf("RPM = %v, want near %v", frame.RPM, p.RPM)
	}
	if frame.Fault {
		t.Error("healthy channel reported a fault")
	}
}

func TestPollRejectsBadChannel(t *testing.T) {
	d := New(2)
	defer d.Close()

	for _, ch := range []int{-1, 2, 99} {
		if _, err := d.Poll(context.Background(), ch); !errors.Is(err, esc.ErrChannel) {
			t.Errorf("Poll(%d) = %v, want ErrChannel", ch, err)
		}
	}
}

func TestFailedMotorKeepsThrottleDropsRPM(t *testing.T) {
	d := New(3)
	defer d.Close()

	if err := d.FailMotor(1); err != nil {
		t.Fatalf("FailMotor: %v", err)
	}

	frame, err := d.Poll(context.Background(), 1)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if frame.RPM >= 10 {
		t.Errorf("failed motor RPM = %v, want near zero", frame.RPM)
	}
	if frame.ThrottleOut < 40 {
		t.Errorf("failed motor ThrottleOut = %v, want commanded throttle held", frame.ThrottleOut)
	}
	if !frame.Fault {
		t.Error("failed motor did not assert the fault flag")
	}

	if err := d.RestoreMotor(1); err != nil {
		t.Fatalf("RestoreMotor: %v", err)
	}
	frame, err = d.Poll(context.Background(), 1)
	if err != nil {
		t.Fatalf("Poll after restore: %v", err)
	}
	if frame.RPM < 1000 {
		t.Errorf("restored motor RPM = %v, want profile speed", frame.RPM)
	}
}

func TestSilencedMotorReportsNoFrame(t *testing.T) {
	d := New(3)
	defer d.Close()

	if err := d.SilenceMotor(0); err != nil {
		t.Fatalf("SilenceMotor: %v", err)
	}
	if _, err := d.Poll(context.Background(), 0); !errors.Is(err, esc.ErrNoFrame) {
		t.Errorf("Poll on silent channel = %v, want ErrNoFrame", err)
	}
	if got := d.ChannelState(0); got != "silent" {
		t.Errorf("ChannelState = %q, want silent", got)
	}
}

func TestPollAfterCloseFails(t *testing.T) {
	d := New(1)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := d.Poll(context.Background(), 0); !errors.Is(err, esc.ErrChannel) {
		t.Errorf("Poll after close = %v, want ErrChannel", err)
	}
}

func TestPollHonorsContext(t *testing.T) {
	d := New(1)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Poll(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Poll with canceled ctx = %v, want context.Canceled", err)
	}
}
