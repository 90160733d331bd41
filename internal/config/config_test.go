package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CURRENCY", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" || cfg.Addr() != ":8080" {
		t.Fatalf("unexpected port: %q %q", cfg.ServerPort, cfg.Addr())
	}
	if cfg.Currency != "BRL" {
		t.Fatalf("expected BRL default, got %q", cfg.Currency)
	}
	if cfg.AccessTokenTTL() != 30*time.Minute {
		t.Fatalf("unexpected ttl %s", cfg.AccessTokenTTL())
	}
	if cfg.LoginRateWindow != time.Minute || cfg.LoginRateLimit != 10 {
		t.Fatalf("unexpected throttle defaults: %d/%s", cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("LOGIN_RATE_WINDOW", "30s")
	t.Setenv("DEV_SEED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Addr() != ":9090" || cfg.Currency != "USD" || cfg.LoginRateWindow != 30*time.Second || !cfg.DevSeed {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if got := cfg.AllowedOrigins(); len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestLoadConfig_ReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\nBCRYPT_COST=4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// empty variables count as unset
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.BcryptCost != 4 {
		t.Fatalf("file values not read: %+v", cfg)
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
