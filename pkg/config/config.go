// Copyright 2025 Certen Protocol
//
// Package config loads the ledger's operational configuration from YAML,
// modeled on the teacher's pkg/config/anchor_config.go loader (struct tags,
// a Load(path) function, sensible defaults when the file omits a field).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LedgerConfig holds the ledger's operational knobs. None of these affect
// the core authorization semantics in pkg/ledger; they tune the service
// around it.
type LedgerConfig struct {
	Environment  string            `yaml:"environment"`
	KeyIDRetries int               `yaml:"key_id_retries"`
	MaxTTL       time.Duration     `yaml:"max_ttl"`
	Metrics      MetricsConfig     `yaml:"metrics"`
	Attestation  AttestationConfig `yaml:"attestation"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// AttestationConfig configures which attester root keys the ledger trusts.
type AttestationConfig struct {
	// TrustedRootsHex is a list of hex-encoded Ed25519 public keys.
	TrustedRootsHex []string `yaml:"trusted_roots_hex"`
}

// Default returns the configuration the ledger runs with when no file is
// supplied, matching the RNG-retry cap spec.md §9 recommends (32) and a
// generous but bounded max TTL.
func Default() *LedgerConfig {
	return &LedgerConfig{
		Environment:  "development",
		KeyIDRetries: 32,
		MaxTTL:       24 * time.Hour,
		Metrics:      MetricsConfig{Enabled: true, Listen: ":9090"},
	}
}

// Load reads a LedgerConfig from a YAML file at path, filling in defaults
// for anything the file doesn't set.
func Load(path string) (*LedgerConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.KeyIDRetries <= 0 {
		cfg.KeyIDRetries = 32
	}
	return cfg, nil
}
