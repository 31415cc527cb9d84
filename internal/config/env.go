package config

import (
	"fmt"
	"os"
	"strconv"
)

// applyEnv overlays ESCMON_* / ESCSIM_* variables on cfg. Unset variables
// leave the current value alone.
func applyEnv(cfg *Config) error {
	envString("ESCMON_LINK_ENDPOINT", &cfg.Link.Endpoint)
	envString("ESCMON_LINK_TRIGGER", &cfg.Link.Trigger)
	envString("ESCMON_JOURNAL_PATH", &cfg.Journal.Path)
	envString("ESCMON_HTTP_BIND", &cfg.HTTP.Bind)
	envString("ESCMON_AUTH_SECRET", &cfg.HTTP.AuthSecret)
	envString("ESCMON_RECORDER_DSN", &cfg.Recorder.DSN)
	envString("ESCSIM_LINK_BIND", &cfg.Sim.LinkBind)
	envString("ESCSIM_CONTROL_BIND", &cfg.Sim.ControlBind)

	ints := []struct {
		key string
		dst *int
	}{
		{"ESCMON_LINK_BAUD", &cfg.Link.Baud},
		{"ESCMON_LINK_READ_TIMEOUT_MS", &cfg.Link.ReadTimeoutMs},
		{"ESCMON_MOTORS", &cfg.Motors},
		{"ESCMON_POLL_INTERVAL_MS", &cfg.Timing.PollIntervalMs},
		{"ESCMON_SNAPSHOT_INTERVAL_MS", &cfg.Timing.SnapshotIntervalMs},
		{"ESCMON_COMM_TIMEOUT_MS", &cfg.Timing.CommTimeoutMs},
		{"ESCMON_STALE_AFTER_MS", &cfg.Health.StaleAfterMs},
		{"ESCMON_JOURNAL_MAX_SIZE_MB", &cfg.Journal.MaxSizeMB},
		{"ESCMON_JOURNAL_MAX_BACKUPS", &cfg.Journal.MaxBackups},
		{"ESCSIM_CYCLE_INTERVAL_MS", &cfg.Sim.CycleIntervalMs},
	}
	for _, e := range ints {
		if err := envInt(e.key, e.dst); err != nil {
			return err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"ESCMON_RPM_FLOOR", &cfg.Health.RPMFloor},
		{"ESCMON_THROTTLE_FLOOR_PCT", &cfg.Health.ThrottleFloorPct},
	}
	for _, e := range floats {
		if err := envFloat(e.key, e.dst); err != nil {
			return err
		}
	}

	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = f
	return nil
}
