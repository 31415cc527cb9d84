// Package config loads and validates the monitor and simulator settings.
//
// Load starts from the compiled baseline (the deployed hexacopter tuning),
// merges an optional YAML file over it, applies ESCMON_* environment
// overrides, and validates the result. Startup fails loudly on an invalid
// configuration; nothing downstream re-checks these values.
package config
