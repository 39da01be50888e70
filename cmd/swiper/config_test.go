package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:3000" {
		t.Errorf("APIAddr = %q, want 127.0.0.1:3000", cfg.APIAddr)
	}
	if cfg.PageSize != defaultPageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, defaultPageSize)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join("swiper", "swiper.duckdb")) {
		t.Errorf("DBPath = %q, want default audit path", cfg.DBPath)
	}
}

func TestLoadConfig_CredentialEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("X_API_KEY", "key")
	t.Setenv("X_KEY_SECRET", "secret")
	t.Setenv("X_AUTH_ACCESS", "token")
	t.Setenv("SWIPER_ACCESS_SECRET", "token-secret")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIKey != "key" || cfg.APISecret != "secret" || cfg.AccessToken != "token" || cfg.AccessSecret != "token-secret" {
		t.Errorf("unexpected credentials: %+v", cfg)
	}
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yml")
	data := "api-port: 8080\npage-size: 20\ndb-path: ~/audit.duckdb\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:8080" {
		t.Errorf("APIAddr = %q, want 127.0.0.1:8080", cfg.APIAddr)
	}
	if cfg.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.PageSize)
	}
	if cfg.DBPath != filepath.Join(home, "audit.duckdb") {
		t.Errorf("DBPath = %q, want expanded home path", cfg.DBPath)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SWIPER_API_PORT", "70000")

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for invalid api-port")
	}
}
