package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/gridbot/internal/config"
)

// isolate points the user and local search paths at empty directories.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestEmbeddedDefaultMatchesHardcoded(t *testing.T) {
	var cfg config.Config
	if err := yaml.Unmarshal(config.GetDefaultYAML(), &cfg); err != nil {
		t.Fatalf("embedded default does not parse: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("embedded default differs (-hardcoded +embedded):\n%s", diff)
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxOperations != 100000 {
		t.Errorf("max_operations = %d, want 100000", cfg.Limits.MaxOperations)
	}
	if cfg.SSH.IdleTimeout != 10*time.Minute {
		t.Errorf("idle_timeout = %s, want 10m", cfg.SSH.IdleTimeout)
	}
}

func TestLoadCustomPathKeepsUnsetDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := "limits:\n  max_operations: 500\nweb:\n  addr: \":9999\"\nlevels:\n  dirs: [levels, more]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxOperations != 500 {
		t.Errorf("max_operations = %d, want 500", cfg.Limits.MaxOperations)
	}
	if cfg.Limits.MaxCallDepth != 32 {
		t.Errorf("max_call_depth = %d, want default 32", cfg.Limits.MaxCallDepth)
	}
	if cfg.Web.Addr != ":9999" {
		t.Errorf("web addr = %q", cfg.Web.Addr)
	}
	if diff := cmp.Diff([]string{"levels", "more"}, cfg.Levels.Dirs); diff != "" {
		t.Errorf("level dirs (-want +got):\n%s", diff)
	}
	if cfg.Storage.DB != "gridbot.db" {
		t.Errorf("db = %q, want default", cfg.Storage.DB)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	isolate(t)
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("limits: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(bad); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestLoadSearchOrder(t *testing.T) {
	dir := isolate(t)
	home := os.Getenv("HOME")

	local := filepath.Join(dir, "configs")
	if err := os.MkdirAll(local, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(local, "gridbot.yaml"), []byte("replay:\n  tps: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replay.TPS != 8 {
		t.Fatalf("local config not used: tps = %d", cfg.Replay.TPS)
	}

	user := filepath.Join(home, ".gridbot")
	if err := os.MkdirAll(user, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(user, "config.yaml"), []byte("replay:\n  tps: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replay.TPS != 2 {
		t.Errorf("user config should win over local: tps = %d", cfg.Replay.TPS)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		tps  int
		want time.Duration
	}{
		{4, 250 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{0, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := (config.ReplayConfig{TPS: tt.tps}).TickInterval(); got != tt.want {
			t.Errorf("TickInterval(%d) = %s, want %s", tt.tps, got, tt.want)
		}
	}
}
