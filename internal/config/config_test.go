package config

import (
	"strings"
	"testing"
	"time"
)

// TestLoad_Defaults loads the configuration with only the mandatory secret
// set and checks the shipped defaults.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Upload.MaxFileBytes != 2_000_000 {
		t.Fatalf("max file bytes = %d, want 2000000", cfg.Upload.MaxFileBytes)
	}
	if cfg.Import.BatchSize != 400 {
		t.Fatalf("batch size = %d, want 400", cfg.Import.BatchSize)
	}
	if cfg.Import.ReadChunkSize != 150*1024 {
		t.Fatalf("read chunk = %d, want 153600", cfg.Import.ReadChunkSize)
	}
	if cfg.Import.InterBatchSleep != 50*time.Millisecond {
		t.Fatalf("batch sleep = %v, want 50ms", cfg.Import.InterBatchSleep)
	}
	if cfg.Session.CookieName != "comentsia_session" {
		t.Fatalf("cookie name = %q", cfg.Session.CookieName)
	}
}

// TestLoad_EnvOverrides applies environment overrides over the defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("COMENTSIA_PORT", "9090")
	t.Setenv("COMENTSIA_IMPORT_BATCH_SIZE", "50")
	t.Setenv("COMENTSIA_IMPORT_BATCH_SLEEP", "10ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Import.BatchSize != 50 {
		t.Fatalf("batch size = %d, want 50", cfg.Import.BatchSize)
	}
	if cfg.Import.InterBatchSleep != 10*time.Millisecond {
		t.Fatalf("batch sleep = %v, want 10ms", cfg.Import.InterBatchSleep)
	}
}

// TestLoad_RequiresSessionSecret refuses to start without the shared secret.
func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SESSION_SECRET") {
		t.Fatalf("err = %v, want SESSION_SECRET validation failure", err)
	}
}

// TestLoad_PostgresRequiresDSN rejects the postgres driver without DB_DSN.
func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for postgres without DSN")
	}
}

// TestLoad_RejectsUnknownDriver rejects drivers outside sqlite/postgres.
func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
