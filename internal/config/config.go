package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
)

// Config is the complete runtime configuration.
type Config struct {
	Link     LinkConfig     `yaml:"link"`
	Motors   int            `yaml:"motors"`
	Timing   TimingConfig   `yaml:"timing"`
	Health   HealthConfig   `yaml:"health"`
	Journal  JournalConfig  `yaml:"journal"`
	HTTP     HTTPConfig     `yaml:"http"`
	Recorder RecorderConfig `yaml:"recorder"`
	Sim      SimConfig      `yaml:"sim"`
}

// LinkConfig describes the collector link.
type LinkConfig struct {
	// Endpoint is a serial device path or "tcp://host:port".
	Endpoint      string `yaml:"endpoint"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"readTimeoutMs"`

	// Trigger is the request byte written each poll. Any byte works; the
	// collector only counts arrivals. Single character, "0" by default.
	Trigger string `yaml:"trigger"`
}

// ReadTimeout returns the per-read deadline.
func (l LinkConfig) ReadTimeout() time.Duration {
	return time.Duration(l.ReadTimeoutMs) * time.Millisecond
}

// TriggerByte returns the configured request byte.
func (l LinkConfig) TriggerByte() byte {
	if l.Trigger == "" {
		return '0'
	}
	return l.Trigger[0]
}

// TimingConfig holds the monitor loop periods.
type TimingConfig struct {
	PollIntervalMs     int `yaml:"pollIntervalMs"`
	SnapshotIntervalMs int `yaml:"snapshotIntervalMs"`

	// CommTimeoutMs is the link heartbeat: with no parsed record for this
	// long, snapshots degrade to the link-failure document.
	CommTimeoutMs int `yaml:"commTimeoutMs"`
}

// PollInterval returns the request pulse period.
func (t TimingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}

// SnapshotInterval returns the aggregate snapshot period.
func (t TimingConfig) SnapshotInterval() time.Duration {
	return time.Duration(t.SnapshotIntervalMs) * time.Millisecond
}

// CommTimeout returns the link heartbeat window.
func (t TimingConfig) CommTimeout() time.Duration {
	return time.Duration(t.CommTimeoutMs) * time.Millisecond
}

// WindowConfig is one [min, max] reading band.
type WindowConfig struct {
	Enabled bool    `yaml:"enabled"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

// HealthConfig holds the rule engine tunables.
type HealthConfig struct {
	StaleAfterMs     int     `yaml:"staleAfterMs"`
	RPMFloor         float64 `yaml:"rpmFloor"`
	ThrottleFloorPct float64 `yaml:"throttleFloorPct"`
	StuckRPMWindowMs int     `yaml:"stuckRpmWindowMs"`
	StuckRPMEpsilon  float64 `yaml:"stuckRpmEpsilon"`

	Voltage      WindowConfig `yaml:"voltage"`
	TotalCurrent WindowConfig `yaml:"totalCurrent"`
	PhaseCurrent WindowConfig `yaml:"phaseCurrent"`
	MosfetTemp   WindowConfig `yaml:"mosfetTemp"`
}

// Limits converts the section into the rule engine's form.
func (h HealthConfig) Limits() health.Limits {
	window := func(w WindowConfig) health.Window {
		return health.Window{Enabled: w.Enabled, Min: w.Min, Max: w.Max}
	}
	return health.Limits{
		StaleAfter:       time.Duration(h.StaleAfterMs) * time.Millisecond,
		RPMFloor:         h.RPMFloor,
		ThrottleFloorPct: h.ThrottleFloorPct,
		StuckRPMWindow:   time.Duration(h.StuckRPMWindowMs) * time.Millisecond,
		StuckRPMEpsilon:  h.StuckRPMEpsilon,
		Voltage:          window(h.Voltage),
		TotalCurrent:     window(h.TotalCurrent),
		PhaseCurrent:     window(h.PhaseCurrent),
		MosfetTemp:       window(h.MosfetTemp),
	}
}

// JournalConfig holds the NDJSON event journal settings. An empty path
// disables the journal.
type JournalConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// HTTPConfig holds the operator API settings. An empty bind disables the
// server; an empty secret disables auth (bench mode).
type HTTPConfig struct {
	Bind       string `yaml:"bind"`
	AuthSecret string `yaml:"authSecret"`
}

// RecorderConfig holds the Postgres sink settings. An empty DSN disables
// persistence.
type RecorderConfig struct {
	DSN string `yaml:"dsn"`
}

// SimConfig holds the escsim listener settings.
type SimConfig struct {
	LinkBind        string `yaml:"linkBind"`
	ControlBind     string `yaml:"controlBind"`
	CycleIntervalMs int    `yaml:"cycleIntervalMs"`
}

// CycleInterval returns the simulator cycle pace.
func (s SimConfig) CycleInterval() time.Duration {
	return time.Duration(s.CycleIntervalMs) * time.Millisecond
}

// Default returns the compiled baseline.
func Default() *Config {
	return &Config{
		Link: LinkConfig{
			Endpoint:      "/dev/ttyACM0",
			Baud:          1000000,
			ReadTimeoutMs: 2000,
			Trigger:       "0",
		},
		Motors: 6,
		Timing: TimingConfig{
			PollIntervalMs:     100,
			SnapshotIntervalMs: 500,
			CommTimeoutMs:      5000,
		},
		Health: HealthConfig{
			StaleAfterMs:     5000,
			RPMFloor:         350,
			ThrottleFloorPct: 5.0,
			StuckRPMEpsilon:  1.0,
			Voltage:          WindowConfig{Min: 18.0, Max: 25.2},
			TotalCurrent:     WindowConfig{Min: 1.4, Max: 18.0},
			PhaseCurrent:     WindowConfig{Min: 0.18, Max: 9.0},
			MosfetTemp:       WindowConfig{Min: 20.0, Max: 75.0},
		},
		Journal: JournalConfig{
			Path:       "logs/escmon.ndjson",
			MaxSizeMB:  10,
			MaxBackups: 2,
		},
		HTTP: HTTPConfig{
			Bind: ":8080",
		},
		Sim: SimConfig{
			LinkBind:        "127.0.0.1:7600",
			ControlBind:     "127.0.0.1:7601",
			CycleIntervalMs: 2,
		},
	}
}

// Load builds the effective configuration: baseline, then the YAML file at
// path (optional, "" skips it), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
