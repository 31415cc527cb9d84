package config

import "fmt"

// Validate enforces the cross-field rules the loops rely on.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := validateLink(cfg); err != nil {
		return fmt.Errorf("link validation failed: %w", err)
	}
	if err := validateTiming(cfg); err != nil {
		return fmt.Errorf("timing validation failed: %w", err)
	}
	if err := validateHealth(cfg); err != nil {
		return fmt.Errorf("health validation failed: %w", err)
	}
	if err := validateJournal(cfg); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	return nil
}

func validateLink(cfg *Config) error {
	if cfg.Link.Endpoint == "" {
		return fmt.Errorf("endpoint must be set")
	}
	if cfg.Link.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", cfg.Link.Baud)
	}
	if cfg.Link.ReadTimeoutMs <= 0 {
		return fmt.Errorf("read timeout must be positive, got %dms", cfg.Link.ReadTimeoutMs)
	}
	if len(cfg.Link.Trigger) > 1 {
		return fmt.Errorf("trigger must be a single byte, got %q", cfg.Link.Trigger)
	}
	if cfg.Motors < 1 {
		return fmt.Errorf("motor count must be >= 1, got %d", cfg.Motors)
	}
	return nil
}

func validateTiming(cfg *Config) error {
	t := cfg.Timing
	if t.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive, got %dms", t.PollIntervalMs)
	}
	if t.SnapshotIntervalMs < t.PollIntervalMs {
		return fmt.Errorf("snapshot interval %dms must be >= poll interval %dms",
			t.SnapshotIntervalMs, t.PollIntervalMs)
	}
	if t.CommTimeoutMs < cfg.Link.ReadTimeoutMs {
		return fmt.Errorf("comm timeout %dms must be >= read timeout %dms",
			t.CommTimeoutMs, cfg.Link.ReadTimeoutMs)
	}
	return nil
}

func validateHealth(cfg *Config) error {
	h := cfg.Health
	if h.StaleAfterMs < cfg.Timing.PollIntervalMs {
		return fmt.Errorf("stale-after %dms must be >= poll interval %dms",
			h.StaleAfterMs, cfg.Timing.PollIntervalMs)
	}
	if h.RPMFloor < 0 {
		return fmt.Errorf("rpm floor must be non-negative, got %v", h.RPMFloor)
	}
	if h.ThrottleFloorPct < 0 {
		return fmt.Errorf("throttle floor must be non-negative, got %v", h.ThrottleFloorPct)
	}
	if h.StuckRPMWindowMs < 0 {
		return fmt.Errorf("stuck rpm window must be non-negative, got %dms", h.StuckRPMWindowMs)
	}
	if h.StuckRPMWindowMs > 0 && h.StuckRPMEpsilon <= 0 {
		return fmt.Errorf("stuck rpm epsilon must be positive when the window is set, got %v", h.StuckRPMEpsilon)
	}

	windows := []struct {
		name string
		w    WindowConfig
	}{
		{"voltage", h.Voltage},
		{"totalCurrent", h.TotalCurrent},
		{"phaseCurrent", h.PhaseCurrent},
		{"mosfetTemp", h.MosfetTemp},
	}
	for _, win := range windows {
		if win.w.Enabled && win.w.Min >= win.w.Max {
			return fmt.Errorf("%s window min %v must be < max %v", win.name, win.w.Min, win.w.Max)
		}
	}
	return nil
}

func validateJournal(cfg *Config) error {
	if cfg.Journal.Path == "" {
		return nil
	}
	if cfg.Journal.MaxSizeMB <= 0 {
		return fmt.Errorf("max size must be positive, got %dMB", cfg.Journal.MaxSizeMB)
	}
	if cfg.Journal.MaxBackups < 0 {
		return fmt.Errorf("max backups must be non-negative, got %d", cfg.Journal.MaxBackups)
	}
	return nil
}
