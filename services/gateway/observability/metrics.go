// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the gateway.
//
// # Description
//
// Metrics cover the session lifecycle and per-turn streaming:
//   - Session counters (accepted vs unauthorized) and an active gauge
//   - Turn counters by outcome
//   - Chunk counter
//   - Backend latency and stream duration histograms
//   - Client disconnect counter
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. All helper methods are
// nil-receiver safe, so handlers work unchanged in tests that never
// call InitMetrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "aleutian"

// Subsystem for gateway metrics.
const gatewaySubsystem = "chat_gateway"

// Session outcome labels.
const (
	SessionAccepted     = "accepted"
	SessionUnauthorized = "unauthorized"
)

// Turn outcome labels.
const (
	TurnSuccess       = "success"
	TurnInvalidJSON   = "invalid_json"
	TurnNotConfigured = "not_configured"
	TurnAborted       = "aborted"
)

// GatewayMetrics holds all Prometheus metrics for the chat gateway.
// Initialize once at startup via InitMetrics().
type GatewayMetrics struct {
	// SessionsTotal counts connection attempts by outcome.
	// Labels: status (accepted, unauthorized)
	SessionsTotal *prometheus.CounterVec

	// ActiveSessions tracks currently live websocket sessions.
	ActiveSessions prometheus.Gauge

	// TurnsTotal counts processed turns by outcome.
	// Labels: status (success, invalid_json, not_configured, aborted)
	TurnsTotal *prometheus.CounterVec

	// ChunksTotal counts response chunks emitted to clients.
	ChunksTotal prometheus.Counter

	// TokensTotal counts backend-reported tokens consumed per turn.
	TokensTotal prometheus.Counter

	// BackendLatencySeconds measures one backend call, thinking frame
	// to full response text.
	BackendLatencySeconds prometheus.Histogram

	// StreamDurationSeconds measures chunk emission for one turn.
	StreamDurationSeconds prometheus.Histogram

	// ClientDisconnectsTotal counts disconnects observed mid-stream.
	ClientDisconnectsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
// Handlers tolerate it being nil.
var DefaultMetrics *GatewayMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metrics instance.
// Safe to call more than once; only the first call registers.
func InitMetrics() *GatewayMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &GatewayMetrics{
			SessionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "sessions_total",
					Help:      "Total websocket connection attempts by outcome",
				},
				[]string{"status"},
			),
			ActiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "active_sessions",
					Help:      "Number of currently live websocket sessions",
				},
			),
			TurnsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "turns_total",
					Help:      "Total processed turns by outcome",
				},
				[]string{"status"},
			),
			ChunksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "chunks_total",
					Help:      "Total response chunks emitted to clients",
				},
			),
			TokensTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "tokens_total",
					Help:      "Total backend-reported tokens consumed",
				},
			),
			BackendLatencySeconds: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "backend_latency_seconds",
					Help:      "Backend call latency per turn in seconds",
					Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
				},
			),
			StreamDurationSeconds: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "stream_duration_seconds",
					Help:      "Chunk emission duration per turn in seconds",
					Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
				},
			),
			ClientDisconnectsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: gatewaySubsystem,
					Name:      "client_disconnects_total",
					Help:      "Total client disconnects observed mid-stream",
				},
			),
		}
	})
	return DefaultMetrics
}

// RecordSession records a connection attempt outcome.
func (m *GatewayMetrics) RecordSession(status string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(status).Inc()
}

// SessionStarted increments the active session gauge.
func (m *GatewayMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func (m *GatewayMetrics) SessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// RecordTurn records one processed turn by outcome.
func (m *GatewayMetrics) RecordTurn(status string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(status).Inc()
}

// RecordChunks adds to the emitted chunk counter.
func (m *GatewayMetrics) RecordChunks(n int) {
	if m == nil {
		return
	}
	m.ChunksTotal.Add(float64(n))
}

// RecordTokens adds backend-reported token usage.
func (m *GatewayMetrics) RecordTokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensTotal.Add(float64(n))
}

// RecordBackendLatency records one backend call duration.
func (m *GatewayMetrics) RecordBackendLatency(seconds float64) {
	if m == nil {
		return
	}
	m.BackendLatencySeconds.Observe(seconds)
}

// RecordStreamDuration records one turn's chunk emission duration.
func (m *GatewayMetrics) RecordStreamDuration(seconds float64) {
	if m == nil {
		return
	}
	m.StreamDurationSeconds.Observe(seconds)
}

// RecordClientDisconnect counts a mid-stream disconnect.
func (m *GatewayMetrics) RecordClientDisconnect() {
	if m == nil {
		return
	}
	m.ClientDisconnectsTotal.Inc()
}
