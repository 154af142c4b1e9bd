package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Scenarios) == 0 || cfg.Iterations == 0 {
		t.Fatal("built-in suite must be non-empty")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
workers: 3
iterations: 5
scenarios:
  - name: tiny-sort
    kind: argsort
    elements: 1000
  - name: capped-io
    kind: fileio
    elements: 2000
    rate_mb: 64
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 3 || cfg.Iterations != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Scenarios) != 2 || cfg.Scenarios[1].RateMB != 64 {
		t.Fatalf("scenarios not loaded: %+v", cfg.Scenarios)
	}
}

func TestLoadConfigRejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `
scenarios:
  - name: nope
    kind: teleport
    elements: 10
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSelectScenario(t *testing.T) {
	cfg, _ := LoadConfig("")

	one, err := cfg.Select(cfg.Scenarios[0].Name)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(one.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(one.Scenarios))
	}

	if _, err := cfg.Select("missing"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}
