package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var configKeys = []string{
	"PYLEARN_ADDR", "PYLEARN_READ_TIMEOUT", "PYLEARN_WRITE_TIMEOUT", "PYLEARN_CORS_ORIGINS",
	"PYLEARN_STORE", "PYLEARN_DB", "REDIS_URL", "RABBITMQ_URI", "RABBITMQ_EXCHANGE",
	"PYLEARN_BACKUP_KEEP", "PYLEARN_PRUNE_INTERVAL", "PYLEARN_REVIEW_SCAN_INTERVAL",
	"PYLEARN_CATALOG", "PYLEARN_LOG_LEVEL",
}

// clearEnv blanks every config key for the test. getEnv treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "" {
		t.Errorf("Store = %+v, want sqlite with default path", cfg.Store)
	}
	if cfg.Jobs.BackupKeep != 10 || cfg.Jobs.PruneInterval != time.Hour {
		t.Errorf("Jobs = %+v", cfg.Jobs)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PYLEARN_ADDR", ":9000")
	t.Setenv("PYLEARN_STORE", "file")
	t.Setenv("PYLEARN_BACKUP_KEEP", "3")
	t.Setenv("PYLEARN_PRUNE_INTERVAL", "30m")
	t.Setenv("PYLEARN_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("PYLEARN_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Store.Backend != "file" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Jobs.BackupKeep != 3 || cfg.Jobs.PruneInterval != 30*time.Minute {
		t.Errorf("Jobs = %+v", cfg.Jobs)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PYLEARN_CATALOG=/tmp/catalog.yaml\nREDIS_URL=redis://localhost:6379/0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Empty values count as unset for godotenv too, so clear them fully.
	os.Unsetenv("PYLEARN_CATALOG")
	os.Unsetenv("REDIS_URL")
	t.Cleanup(func() {
		os.Unsetenv("PYLEARN_CATALOG")
		os.Unsetenv("REDIS_URL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogPath != "/tmp/catalog.yaml" || cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PYLEARN_STORE", "mongo"},
		{"PYLEARN_BACKUP_KEEP", "0"},
		{"PYLEARN_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("%s=%s: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestBadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PYLEARN_BACKUP_KEEP", "lots")
	t.Setenv("PYLEARN_READ_TIMEOUT", "soon")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jobs.BackupKeep != 10 || cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("fallbacks not applied: %+v %+v", cfg.Jobs, cfg.Server)
	}
}
