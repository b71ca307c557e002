package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Store.Driver != "sqlserver" {
		t.Errorf("expected Driver=sqlserver, got %s", cfg.Store.Driver)
	}
	if cfg.Form.OfficeDownPresses != 4 {
		t.Errorf("expected OfficeDownPresses=4, got %d", cfg.Form.OfficeDownPresses)
	}
	if cfg.Form.PartyTabPresses != 7 {
		t.Errorf("expected PartyTabPresses=7, got %d", cfg.Form.PartyTabPresses)
	}
	if got := cfg.GetNavigationTimeout(); got != 15*time.Second {
		t.Errorf("expected navigation timeout 15s, got %v", got)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("LAWSYSTEM_USERNAME", "")
	t.Setenv("CASETASKER_DB_DRIVER", "")

	path := filepath.Join(t.TempDir(), "casetasker.yaml")

	cfg := DefaultConfig()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = "file:recortes.db"
	cfg.App.Username = "operador"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Store.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", loaded.Store.Driver)
	}
	if loaded.App.Username != "operador" {
		t.Errorf("expected Username=operador, got %s", loaded.App.Username)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Form.TaskType != "Prazo Agendado" {
		t.Errorf("expected default task type, got %q", cfg.Form.TaskType)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Store.Server = "db01"
		cfg.Store.User = "robo"
		cfg.Store.Password = "secret"
		cfg.Store.Database = "RECORTES"
		cfg.App.Username = "operador"
		cfg.App.Password = "senha"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "complete", mutate: func(*Config) {}},
		{name: "missing app password", mutate: func(c *Config) { c.App.Password = "" }, wantErr: true},
		{name: "missing sql server", mutate: func(c *Config) { c.Store.Server = "" }, wantErr: true},
		{name: "dsn replaces parts", mutate: func(c *Config) { c.Store.Server = ""; c.Store.DSN = "sqlserver://x" }},
		{name: "sqlite needs dsn", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "oracle" }, wantErr: true},
		{name: "bad cutoff", mutate: func(c *Config) { c.Store.Cutoff = "yesterday" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected valid config, got error: %v", err)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Form.StepDelay = "not-a-duration"
	cfg.Form.TabDelay = "250ms"

	if got := cfg.GetStepDelay(); got != time.Second {
		t.Errorf("expected fallback 1s, got %v", got)
	}
	if got := cfg.GetTabDelay(); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{Categories: map[string]bool{"browser": false}}
	if lc.IsCategoryEnabled("browser") {
		t.Error("browser should be disabled")
	}
	if !lc.IsCategoryEnabled("store") {
		t.Error("unlisted categories should be enabled")
	}
}
