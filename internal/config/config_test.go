package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "MEDIA_BACKEND", "SAVE_TIMEOUT", "MAX_UPLOAD_MB", "DRAFT_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.ListenAddr)
	}
	if cfg.MediaBackend != MediaBackendLocal {
		t.Fatalf("expected local media backend, got %s", cfg.MediaBackend)
	}
	if cfg.SaveTimeout != 15*time.Second {
		t.Fatalf("expected 15s save timeout, got %v", cfg.SaveTimeout)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MEDIA_BACKEND", "ImageKit")
	t.Setenv("SAVE_TIMEOUT", "30")
	t.Setenv("DRAFT_TTL", "45m")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg := Load()
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected :9000, got %s", cfg.ListenAddr)
	}
	if cfg.MediaBackend != MediaBackendImageKit {
		t.Fatalf("expected imagekit backend, got %s", cfg.MediaBackend)
	}
	if cfg.SaveTimeout != 30*time.Second {
		t.Fatalf("expected 30s, got %v", cfg.SaveTimeout)
	}
	if cfg.DraftTTL != 45*time.Minute {
		t.Fatalf("expected 45m, got %v", cfg.DraftTTL)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected fallback upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BLOCKCMS_TEST_A=from-file\nBLOCKCMS_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("BLOCKCMS_TEST_A", "from-env")
	t.Setenv("BLOCKCMS_TEST_B", "")
	os.Unsetenv("BLOCKCMS_TEST_B")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv("BLOCKCMS_TEST_A"); got != "from-env" {
		t.Fatalf("expected env to win, got %s", got)
	}
	if got := os.Getenv("BLOCKCMS_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %s", got)
	}
}
