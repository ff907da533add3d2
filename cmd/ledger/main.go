// Copyright 2025 Certen Protocol
//
// cmd/ledger wires the confidential-compute ledger's in-memory core to its
// ambient stack: YAML configuration, a Prometheus exposition endpoint, and
// stdlib logging, mirroring the way the teacher's main.go wires its
// validator's components together. There is no RPC transport here (spec §1
// treats that as an external collaborator): this binary demonstrates the
// wiring and exposes metrics for an operator to scrape while the actual
// request/response calls are driven by an embedding process.
package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/confidential-ledger/pkg/attestation"
	"github.com/certen/confidential-ledger/pkg/config"
	"github.com/certen/confidential-ledger/pkg/ledger"
	"github.com/certen/confidential-ledger/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a ledger YAML config file (optional)")
	flag.Parse()

	logger := log.New(os.Stderr, "[ledger] ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	var roots []ed25519.PublicKey
	for _, hexKey := range cfg.Attestation.TrustedRootsHex {
		raw, err := hex.DecodeString(hexKey)
		if err != nil {
			logger.Fatalf("decode trusted root %q: %v", hexKey, err)
		}
		roots = append(roots, ed25519.PublicKey(raw))
	}
	verifier := attestation.NewVerifier(roots)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	svc := ledger.NewService(verifier, logger, recorder, cfg.KeyIDRetries)
	_ = svc // the service is driven by an embedding RPC layer, out of scope here.

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			logger.Printf("metrics listening on %s", cfg.Metrics.Listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics server error: %v", err)
			}
		}()
	}

	logger.Printf("ledger core started (environment=%s)", cfg.Environment)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")
}
