package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig describes one workload to measure.
type ScenarioConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Elements int    `yaml:"elements"`
	RateMB   int    `yaml:"rate_mb"` // fileio only; 0 = uncapped
}

// Config is the benchmark suite, loadable from YAML.
type Config struct {
	Workers    int              `yaml:"workers"` // 0 = detected core count
	Iterations int              `yaml:"iterations"`
	Scenarios  []ScenarioConfig `yaml:"scenarios"`
}

var knownKinds = []string{"map", "starmap", "argsort", "copy", "fileio"}

// DefaultConfig is the suite run when no config file is given.
func DefaultConfig() Config {
	return Config{
		Iterations: 3,
		Scenarios: []ScenarioConfig{
			{Name: "map-squares", Kind: "map", Elements: 2_000_000},
			{Name: "starmap-chunk-sums", Kind: "starmap", Elements: 8_000_000},
			{Name: "argsort-doubles", Kind: "argsort", Elements: 2_000_000},
			{Name: "shared-copy", Kind: "copy", Elements: 32_000_000},
			{Name: "file-roundtrip", Kind: "fileio", Elements: 8_000_000},
		},
	}
}

// LoadConfig reads a YAML suite, falling back to defaults for omitted
// fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	loaded := Config{}
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if loaded.Iterations > 0 {
		cfg.Iterations = loaded.Iterations
	}
	if loaded.Workers > 0 {
		cfg.Workers = loaded.Workers
	}
	if len(loaded.Scenarios) > 0 {
		cfg.Scenarios = loaded.Scenarios
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	bad := lo.Filter(c.Scenarios, func(s ScenarioConfig, _ int) bool {
		return !lo.Contains(knownKinds, s.Kind) || s.Elements <= 0
	})
	if len(bad) > 0 {
		names := lo.Map(bad, func(s ScenarioConfig, _ int) string { return s.Name })
		return fmt.Errorf("invalid scenarios %s (kinds: %s, elements must be positive)",
			strings.Join(names, ", "), strings.Join(knownKinds, "|"))
	}
	return nil
}

// Select keeps only the named scenario, or all of them for "".
func (c Config) Select(name string) (Config, error) {
	if name == "" {
		return c, nil
	}
	kept := lo.Filter(c.Scenarios, func(s ScenarioConfig, _ int) bool { return s.Name == name })
	if len(kept) == 0 {
		return Config{}, fmt.Errorf("unknown scenario %q", name)
	}
	c.Scenarios = kept
	return c, nil
}
