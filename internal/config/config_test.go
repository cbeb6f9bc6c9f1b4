package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Enabled {
		t.Fatal("logging.enabled default should be false")
	}
	if cfg.Limits.MaxChunkBytes != 1048576 {
		t.Fatalf("limits.max_chunk_bytes default = %d, want 1048576", cfg.Limits.MaxChunkBytes)
	}
}

func writeConfig(t *testing.T, dir, contents string) {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
}

func TestLoadReadsFileAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "logging:\n  enabled: true\n  file_path: /tmp/anvil.log\nlimits:\n  max_chunk_bytes: 4096\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Logging.Enabled || cfg.Logging.FilePath != "/tmp/anvil.log" {
		t.Fatalf("logging section = %+v, want enabled file_path=/tmp/anvil.log", cfg.Logging)
	}
	if cfg.Limits.MaxChunkBytes != 4096 {
		t.Fatalf("limits.max_chunk_bytes = %d, want 4096", cfg.Limits.MaxChunkBytes)
	}
}

func TestLoadRejectsLoggingEnabledWithoutPath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "logging:\n  enabled: true\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error when logging is enabled with no file_path")
	}
}

func TestLoadRejectsOversizedChunkLimit(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "limits:\n  max_chunk_bytes: 99999999\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error when max_chunk_bytes exceeds the format's hard cap")
	}
}
