package sysfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/reach"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	data := []byte(`
root: /host/sys
poll_interval: 2s
exclude:
  - tailscale
`)

	cfg, err := LoadConfig(data, reach.YAMLCodec{})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Root != "/host/sys" {
		t.Errorf("expected root /host/sys, got %q", cfg.Root)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.PollInterval)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "tailscale" {
		t.Errorf("expected exclude [tailscale], got %v", cfg.Exclude)
	}
	// Absent fields keep their defaults
	if cfg.ErrorHistory != DefaultErrorHistory {
		t.Errorf("expected default error history %d, got %d", DefaultErrorHistory, cfg.ErrorHistory)
	}
	if len(cfg.CellularPrefixes) == 0 {
		t.Error("expected default cellular prefixes to be kept")
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	data := []byte(`{"root": "/sys", "wake_paths": ["/tmp/wake"], "error_history": 0}`)

	cfg, err := LoadConfig(data, reach.JSONCodec{})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.WakePaths) != 1 || cfg.WakePaths[0] != "/tmp/wake" {
		t.Errorf("expected wake paths [/tmp/wake], got %v", cfg.WakePaths)
	}
	if cfg.ErrorHistory != 0 {
		t.Errorf("expected error history 0, got %d", cfg.ErrorHistory)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty root", "root: \"\""},
		{"negative poll interval", "poll_interval: -1s"},
		{"empty exclude entry", "exclude: [\"\"]"},
		{"error history too large", "error_history: 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.data), reach.YAMLCodec{})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid config") {
				t.Errorf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestLoadConfig_DecodeError(t *testing.T) {
	_, err := LoadConfig([]byte("root: [unclosed"), reach.YAMLCodec{})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "failed to decode application/x-yaml config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig([]byte("pol_interval: 2s\n"), reach.YAMLCodec{})
	if err == nil {
		t.Fatal("expected error for misspelled field")
	}
	if !strings.Contains(err.Error(), "failed to decode") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json by extension", func(t *testing.T) {
		path := filepath.Join(dir, "reach.json")
		if err := os.WriteFile(path, []byte(`{"poll_interval": 3000000000}`), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cfg.PollInterval != 3*time.Second {
			t.Errorf("expected poll interval 3s, got %v", cfg.PollInterval)
		}
	})

	t.Run("yaml by extension", func(t *testing.T) {
		path := filepath.Join(dir, "reach.yml")
		if err := os.WriteFile(path, []byte("root: /host/sys\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cfg.Root != "/host/sys" {
			t.Errorf("expected root /host/sys, got %q", cfg.Root)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(dir, "absent.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := LoadConfigFile(filepath.Join(dir, "reach.toml")); err == nil {
			t.Error("expected error for unsupported extension")
		}
	})
}

func TestNew_WithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = newFakeSysfs(t, fakeLink{name: "eth0", operstate: "up"})
	cfg.ErrorHistory = 0

	r := New(WithConfig(cfg))

	if got := r.CurrentStatus(); got != reach.ReachableViaWired {
		t.Errorf("expected wired, got %s", got)
	}
	if r.ErrorHistory() != nil {
		t.Errorf("expected nil history when disabled, got %v", r.ErrorHistory())
	}
}
