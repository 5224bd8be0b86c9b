package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "BACKEND_BASE_URL", "BACKEND_TIMEOUT_SECONDS", "PAGE_SIZE",
		"STORAGE_MODE", "DATABASE_URL", "DATABASE_URL_POOLED", "DATABASE_URL_DIRECT",
		"REPORTS_MODE", "REPORT_TIMEZONE", "SESSION_IDLE_MINUTES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "local" {
		t.Errorf("expected env=local, got %q", cfg.Env)
	}
	if cfg.BackendBaseURL != "http://localhost:8080/api" {
		t.Errorf("unexpected backend url %q", cfg.BackendBaseURL)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("expected 10s backend timeout, got %s", cfg.BackendTimeout)
	}
	if cfg.PageSize != 10 {
		t.Errorf("expected page size 10, got %d", cfg.PageSize)
	}
	if cfg.StorageMode != StorageModeMemory {
		t.Errorf("expected memory storage without database url, got %s", cfg.StorageMode)
	}
	if cfg.Reports.Mode != BlobModeLocal {
		t.Errorf("expected local reports mode, got %s", cfg.Reports.Mode)
	}
	if cfg.Reports.Timezone != "America/Lima" {
		t.Errorf("expected America/Lima, got %s", cfg.Reports.Timezone)
	}
	if cfg.SessionIdleTimeout != 120*time.Minute {
		t.Errorf("expected 120m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
}

func TestLoadStorageMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		dbURL string
		want  string
	}{
		{"database url implies postgres", "", "postgres://localhost/pos", StorageModePostgres},
		{"explicit sqlite", "sqlite", "", StorageModeSQLite},
		{"explicit memory wins over url", "memory", "postgres://localhost/pos", StorageModeMemory},
		{"unknown falls back to memory", "redis", "", StorageModeMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_MODE", tt.mode)
			t.Setenv("DATABASE_URL", tt.dbURL)
			t.Setenv("DATABASE_URL_POOLED", "")
			t.Setenv("DATABASE_URL_DIRECT", "")

			if got := Load().StorageMode; got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLoadTrimsBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://pos.example.com/api/")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "-3")

	cfg := Load()
	if cfg.BackendBaseURL != "https://pos.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BackendBaseURL)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Fatalf("expected invalid timeout to fall back to 10s, got %s", cfg.BackendTimeout)
	}
}
