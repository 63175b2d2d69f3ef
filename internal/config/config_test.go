package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HUSTLEBOARD_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  addr: \":9000\"\nauth:\n  jwt_secret: from-file\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HUSTLEBOARD_ADDR", ":7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Fatalf("addr = %q, want env override :7000", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("jwt secret = %q, want file value", cfg.Auth.JWTSecret)
	}
}

func TestValidateRejectsIncompleteBackends(t *testing.T) {
	t.Setenv("HUSTLEBOARD_JWT_SECRET", "s3cret")
	t.Setenv("HUSTLEBOARD_STORAGE_BACKEND", "postgres")

	if _, err := Load(""); err == nil {
		t.Fatal("postgres backend without DSN accepted")
	}
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("missing jwt secret accepted")
	}
}
