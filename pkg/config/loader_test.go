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

func TestDecode_LayersAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  password: ${DB_SECRET_FOR_TEST}
server:
  port: ":8080"
  shutdown_timeout: 30s
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
`)
	writeFile(t, dir, "secrets.env", `
# comment
DB_SECRET_FOR_TEST="s3cret"
`)

	var cfg struct {
		DB     DBConfig     `yaml:"db"`
		Server ServerConfig `yaml:"server"`
	}
	if err := Decode("staging", dir, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Host != "db.staging" {
		t.Fatalf("env layer not applied, host = %q", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 {
		t.Fatalf("base value lost, port = %d", cfg.DB.Port)
	}
	if cfg.DB.Password != "s3cret" {
		t.Fatalf("secret not substituted, password = %q", cfg.DB.Password)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestDecode_SystemEnvWinsOverSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "jwt:\n  secret: ${JWT_SECRET_FOR_TEST}\n")
	writeFile(t, dir, "secrets.env", "JWT_SECRET_FOR_TEST=from-file\n")
	t.Setenv("JWT_SECRET_FOR_TEST", "from-env")

	var cfg struct {
		JWT JWTConfig `yaml:"jwt"`
	}
	if err := Decode("local", dir, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("secret = %q, want from-env", cfg.JWT.Secret)
	}
}

func TestLoadConfig_MissingBase(t *testing.T) {
	if _, err := LoadConfig("local", t.TempDir()); err == nil {
		t.Fatalf("expected error without base.yaml")
	}
}

func TestMergeMaps_Nested(t *testing.T) {
	dst := map[string]interface{}{
		"a": map[string]interface{}{"x": 1, "y": 2},
		"b": "keep",
	}
	src := map[string]interface{}{
		"a": map[string]interface{}{"y": 3},
	}
	got := mergeMaps(dst, src)
	a := got["a"].(map[string]interface{})
	if a["x"] != 1 || a["y"] != 3 || got["b"] != "keep" {
		t.Fatalf("unexpected merge result: %v", got)
	}
}
