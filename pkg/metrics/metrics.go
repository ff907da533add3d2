// Copyright 2025 Certen Protocol
//
// Package metrics instruments the four LedgerService operations with
// Prometheus counters and a latency histogram, promoting
// github.com/prometheus/client_golang from an indirect dependency pulled in
// by the teacher's consensus stack to one the ledger actually exercises.
package metrics

import (
	"time"

	"github.com/certen/confidential-ledger/pkg/ledgererr"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks outcome counts and latency for ledger operations.
type Recorder struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder builds a Recorder and registers its collectors with reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across test binaries.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confidential_ledger",
			Name:      "requests_total",
			Help:      "LedgerService operations by method and outcome code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "confidential_ledger",
			Name:      "request_duration_seconds",
			Help:      "LedgerService operation latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(r.requests, r.latency)
	return r
}

// Observe records the outcome of one operation call. err should be either
// nil or a *ledgererr.Status; any other error type is reported as Internal.
func (r *Recorder) Observe(method string, start time.Time, err error) {
	code := ledgererr.OK.String()
	if err != nil {
		code = ledgererr.CodeOf(err).String()
	}
	r.requests.WithLabelValues(method, code).Inc()
	r.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
