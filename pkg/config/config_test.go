// Copyright 2025 Certen Protocol

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasPositiveKeyIDRetries(t *testing.T) {
	if Default().KeyIDRetries <= 0 {
		t.Fatal("Default() must set a positive KeyIDRetries")
	}
}

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte("environment: staging\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Fatalf("got environment %q, want %q", cfg.Environment, "staging")
	}
	if cfg.KeyIDRetries != 32 {
		t.Fatalf("got key id retries %d, want default 32", cfg.KeyIDRetries)
	}
}

func TestLoadOverridesKeyIDRetries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte("key_id_retries: 5\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeyIDRetries != 5 {
		t.Fatalf("got key id retries %d, want 5", cfg.KeyIDRetries)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected Load to fail for a missing file")
	}
}
