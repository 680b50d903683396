package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Holidays.Country != "KR" || cfg.Display.Columns != 2 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Store.Driver = DriverPostgres
	cfg.Store.DSN = "postgres://localhost/habits"
	cfg.Holidays.KV = KVRedis
	cfg.Display.Capacity = 0

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Store.Driver != DriverPostgres || got.Store.DSN != cfg.Store.DSN || got.Holidays.KV != KVRedis {
		t.Fatalf("round trip = %+v", got)
	}
	if got.Display.Capacity != 6 {
		t.Fatalf("non-positive capacity not reset: %d", got.Display.Capacity)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("holidays:\n  country: US\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HABITCAL_HOLIDAYS_COUNTRY", "JP")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Holidays.Country != "JP" {
		t.Fatalf("country = %q, want JP", cfg.Holidays.Country)
	}
}
