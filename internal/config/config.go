// Package config holds the harness settings: defaults, a YAML file layer and
// validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by configuration loading.
var (
	// ErrInvalid is returned by Validate for out-of-range settings.
	ErrInvalid = errors.New("config: invalid setting")
)

// Defaults.
const (
	DefaultTrials      = 3
	DefaultCoefficient = 1e8
	DefaultWarmup      = 3
	DefaultRepetitions = 10_000_000
)

// Config is the full set of harness settings.
type Config struct {
	// Markdown selects Markdown rendering of the report.
	Markdown bool `yaml:"markdown"`

	// Core is the logical core the measuring thread is pinned to; negative
	// disables pinning.
	Core int `yaml:"core"`

	// Trials is the number of independent frequency estimates averaged.
	Trials int `yaml:"trials"`

	// Coefficient is the repetition count of the calibration chain and the
	// unit every timing ratio is normalised to.
	Coefficient float64 `yaml:"coefficient"`

	// Warmup is how many times a measurement is repeated; only the last run
	// counts.
	Warmup int `yaml:"warmup"`

	// Repetitions is the instruction count of each instruction probe.
	Repetitions int64 `yaml:"repetitions"`

	// Isolate runs guarded calls in a probe child so an illegal instruction
	// cannot terminate the harness.
	Isolate bool `yaml:"isolate"`

	// Instructions restricts the instruction probes by name; empty means all.
	Instructions []string `yaml:"instructions"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Core:        0,
		Trials:      DefaultTrials,
		Coefficient: DefaultCoefficient,
		Warmup:      DefaultWarmup,
		Repetitions: DefaultRepetitions,
		Isolate:     true,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}

	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks every setting is in range.
func (c Config) Validate() error {
	switch {
	case c.Trials <= 0:
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalid, c.Trials)
	case c.Coefficient <= 0:
		return fmt.Errorf("%w: coefficient must be positive, got %g", ErrInvalid, c.Coefficient)
	case c.Warmup <= 0:
		return fmt.Errorf("%w: warmup must be positive, got %d", ErrInvalid, c.Warmup)
	case c.Repetitions <= 0:
		return fmt.Errorf("%w: repetitions must be positive, got %d", ErrInvalid, c.Repetitions)
	}

	return nil
}

// Selected reports whether the instruction probe name is enabled.
func (c Config) Selected(name string) bool {
	if len(c.Instructions) == 0 {
		return true
	}

	for _, n := range c.Instructions {
		if n == name {
			return true
		}
	}

	return false
}
