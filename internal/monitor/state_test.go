package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

func lenientLimits() health.Limits {
	lim := health.DefaultLimits()
	lim.StaleAfter = 5 * time.Second
	return lim
}

func runningSample(motor int) telemetry.MotorSample {
	return telemetry.MotorSample{
		MotorIndex:   motor,
		Updated:      true,
		ArmTimeMs:    1200,
		ThrottleIn:   42.50,
		ThrottleOut:  43.10,
		RPM:          5230.25,
		BusVoltage:   22.40,
		BusCurrent:   9.400,
		PhaseCurrent: 3.100,
		MosfetTemp:   41.20,
		CapTemp:      38.90,
	}
}

func TestTableStartsUnknown(t *testing.T) {
	tbl := NewTable(6, 0)
	if tbl.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", tbl.Len())
	}
	for i, st := range tbl.Statuses() {
		if st != health.StatusUnknown {
			t.Errorf("motor %d starts %q, want %q", i, st, health.StatusUnknown)
		}
	}
	row, err := tbl.Motor(3)
	if err != nil {
		t.Fatalf("Motor(3): %v", err)
	}
	if row.Seen {
		t.Error("fresh table reports Seen")
	}
	if row.Sample.MotorIndex != 3 {
		t.Errorf("row 3 carries motor index %d", row.Sample.MotorIndex)
	}
}

func TestTableAcceptStampsRow(t *testing.T) {
	tbl := NewTable(6, 0)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := tbl.Accept(runningSample(2), at); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	row, err := tbl.Motor(2)
	if err != nil {
		t.Fatalf("Motor(2): %v", err)
	}
	if !row.Seen {
		t.Error("accepted row not marked Seen")
	}
	if !row.LastSeen.Equal(at) {
		t.Errorf("LastSeen = %v, want %v", row.LastSeen, at)
	}
	if row.Sample.RPM != 5230.25 {
		t.Errorf("RPM = %v, want 5230.25", row.Sample.RPM)
	}
}

func TestTableAcceptRejectsOutOfRange(t *testing.T) {
	tbl := NewTable(6, 0)
	now := time.Now()

	for _, idx := range []int{-1, 6, 99} {
		s := runningSample(0)
		s.MotorIndex = idx
		if err := tbl.Accept(s, now); !errors.Is(err, ErrMotorIndex) {
			t.Errorf("Accept(motor %d) = %v, want ErrMotorIndex", idx, err)
		}
	}
	if row, _ := tbl.Motor(0); row.Seen {
		t.Error("rejected sample mutated the table")
	}
}

func TestTableHistoryKeepsFreshSamplesOnly(t *testing.T) {
	tbl := NewTable(2, 3)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	stale := runningSample(0)
	stale.Updated = false
	if err := tbl.Accept(stale, base); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got := len(tbl.history[0]); got != 0 {
		t.Fatalf("re-served sample landed in history, len = %d", got)
	}

	for i := 0; i < 5; i++ {
		s := runningSample(0)
		s.RPM = 5000 + float64(i)
		if err := tbl.Accept(s, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Accept %d: %v", i, err)
		}
	}

	h := tbl.history[0]
	if len(h) != 3 {
		t.Fatalf("history len = %d, want cap 3", len(h))
	}
	if h[0].RPM != 5002 || h[2].RPM != 5004 {
		t.Errorf("history kept %v..%v, want oldest 5002 newest 5004", h[0].RPM, h[2].RPM)
	}
}

func TestClassifyAllReportsTransitionsOnce(t *testing.T) {
	tbl := NewTable(3, 0)
	eng := health.NewEngine(lenientLimits())
	now := time.Now()

	if err := tbl.Accept(runningSample(1), now); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	trs := tbl.ClassifyAll(eng, now)
	if len(trs) != 1 {
		t.Fatalf("first pass produced %d transitions, want 1: %+v", len(trs), trs)
	}
	tr := trs[0]
	if tr.Motor != 1 || tr.From != health.StatusUnknown || tr.To != health.StatusNormal {
		t.Errorf("transition = %+v, want motor 1 unknown->normal", tr)
	}

	if trs := tbl.ClassifyAll(eng, now.Add(time.Millisecond)); len(trs) != 0 {
		t.Errorf("steady state produced transitions: %+v", trs)
	}
}

func TestClassifyAllMarksStaleMotorDown(t *testing.T) {
	tbl := NewTable(2, 0)
	eng := health.NewEngine(lenientLimits())
	start := time.Now()

	if err := tbl.Accept(runningSample(0), start); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	tbl.ClassifyAll(eng, start)

	trs := tbl.ClassifyAll(eng, start.Add(6*time.Second))
	if len(trs) != 1 {
		t.Fatalf("stale pass produced %d transitions, want 1", len(trs))
	}
	if trs[0].To != health.StatusDown {
		t.Errorf("stale motor went %q, want %q", trs[0].To, health.StatusDown)
	}
	hasStale := false
	for _, name := range trs[0].Rules {
		if name == "stale" {
			hasStale = true
		}
	}
	if !hasStale {
		t.Errorf("transition rules = %v, want stale listed", trs[0].Rules)
	}

	// Motor 1 never reported; silence keeps it unknown, not down.
	if st := tbl.Statuses()[1]; st != health.StatusUnknown {
		t.Errorf("never-seen motor = %q, want %q", st, health.StatusUnknown)
	}
}

func TestBuildSnapshotMirrorsRows(t *testing.T) {
	tbl := NewTable(6, 0)
	eng := health.NewEngine(lenientLimits())
	now := time.Now()

	if err := tbl.Accept(runningSample(4), now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	tbl.ClassifyAll(eng, now)

	snap := tbl.BuildSnapshot()
	if len(snap.MotorStatusList) != 6 || len(snap.MotorRPMList) != 6 {
		t.Fatalf("snapshot lists sized %d/%d, want 6", len(snap.MotorStatusList), len(snap.MotorRPMList))
	}
	if snap.MotorStatusList[4] != "normal" {
		t.Errorf("motor 5 status = %q, want normal", snap.MotorStatusList[4])
	}
	if snap.MotorStatusList[0] != "unknown" {
		t.Errorf("motor 1 status = %q, want unknown", snap.MotorStatusList[0])
	}
	if snap.MotorRPMList[4] != 5230.25 {
		t.Errorf("motor 5 rpm = %v, want 5230.25", snap.MotorRPMList[4])
	}
	if snap.VoltageList[4] != 22.40 {
		t.Errorf("motor 5 voltage = %v, want 22.40", snap.VoltageList[4])
	}
	if snap.MotorRPMList[0] != 0 {
		t.Errorf("never-seen motor rpm = %v, want 0", snap.MotorRPMList[0])
	}
}

func TestRowsReturnsCopy(t *testing.T) {
	tbl := NewTable(2, 0)
	rows := tbl.Rows()
	rows[0].Status = health.StatusDown

	if st := tbl.Statuses()[0]; st != health.StatusUnknown {
		t.Errorf("mutating the copy reached the table: %q", st)
	}
}
