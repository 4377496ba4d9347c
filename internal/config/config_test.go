package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Exec.Backend != "process" {
		t.Errorf("expected default exec backend 'process', got %s", cfg.Exec.Backend)
	}
	if cfg.Exec.Timeout != 10*time.Second {
		t.Errorf("expected default exec timeout 10s, got %s", cfg.Exec.Timeout)
	}
	if cfg.Upload.MaxBytes != 500*1024*1024 {
		t.Errorf("expected 500MB upload cap, got %d", cfg.Upload.MaxBytes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("EXEC_BACKEND", "docker")
	t.Setenv("EXEC_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Exec.Backend != "docker" {
		t.Errorf("expected docker backend, got %s", cfg.Exec.Backend)
	}
	if cfg.Exec.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Exec.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"bad backend", func(c *Config) { c.Exec.Backend = "chroot" }, true},
		{"zero timeout", func(c *Config) { c.Exec.Timeout = 0 }, true},
		{"zero upload cap", func(c *Config) { c.Upload.MaxBytes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
