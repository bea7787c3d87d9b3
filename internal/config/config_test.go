package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":9000"
db:
  host: db
  password: ${DB_PASSWORD}
jwt:
  secret: ${JWT_SECRET}
timeline:
  lock_ttl: 90s
`)
	writeFile(t, dir, "local.yaml", `
timeline:
  storage: memory
`)
	writeFile(t, dir, "secrets.env", "JWT_SECRET=s3cret\n")

	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TIMELINE_STORAGE", "")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFrom("local", dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != ":9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Timeline.Storage != StorageMemory {
		t.Errorf("storage = %q, want memory", cfg.Timeline.Storage)
	}
	if cfg.Timeline.LockTTL != 90*time.Second {
		t.Errorf("lock ttl = %v", cfg.Timeline.LockTTL)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.DB.Password != "" {
		t.Errorf("unresolved password placeholder should be empty, got %q", cfg.DB.Password)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Notify.FailureThreshold != 5 || cfg.Timeline.ActivationCron == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFrom_RejectsUnknownStorage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
jwt:
  secret: x
timeline:
  storage: sqlite
`)
	t.Setenv("TIMELINE_STORAGE", "")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadFrom("base", dir); err == nil {
		t.Fatalf("expected error for unknown storage")
	}
}
