// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import (
	"sync"
	"time"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// measurementWindow bounds how many samples PerformanceStats keeps per
// label before the rolling average discards the oldest (spec.md
// §4.4.8: "a bounded rolling window, not an unbounded history").
const measurementWindow = 64

// performanceSample is one completed start/end_performance_measurement
// pair.
type performanceSample struct {
	durationNanos int64
	startedAt     atomics.Timestamp
}

// PerformanceStats is the rolling average, min, and max duration
// observed for one labeled operation.
type PerformanceStats struct {
	Label     string
	Count     uint64
	AvgNanos  float64
	MinNanos  int64
	MaxNanos  int64
	LastNanos int64
}

// Monitor is the start/end_performance_measurement pair of spec.md
// §4.4.8: callers call Start to get a token, do the work, then call End
// with that token to record a sample against the operation's label.
type Monitor struct {
	cfg *Config

	mu      sync.Mutex
	samples map[string][]performanceSample
}

// NewMonitor constructs a Monitor gated by cfg.PerformanceMonitoring.
func NewMonitor(cfg *Config) *Monitor {
	return &Monitor{cfg: cfg, samples: make(map[string][]performanceSample)}
}

// measurement is the token returned by Start.
type measurement struct {
	label string
	start time.Time
}

// StartPerformanceMeasurement begins timing label. Call
// EndPerformanceMeasurement with the returned token to record the
// sample.
func (m *Monitor) StartPerformanceMeasurement(label string) measurement {
	return measurement{label: label, start: time.Now()}
}

// EndPerformanceMeasurement records the elapsed time since tok was
// created, appending to label's rolling window and dropping the oldest
// sample once measurementWindow is exceeded.
func (m *Monitor) EndPerformanceMeasurement(tok measurement) {
	if m.cfg != nil && !m.cfg.PerformanceMonitoring {
		return
	}
	elapsed := time.Since(tok.start).Nanoseconds()
	sample := performanceSample{durationNanos: elapsed, startedAt: atomics.NowNanos()}

	m.mu.Lock()
	defer m.mu.Unlock()
	window := append(m.samples[tok.label], sample)
	if len(window) > measurementWindow {
		window = window[len(window)-measurementWindow:]
	}
	m.samples[tok.label] = window
}

// Stats returns the rolling statistics recorded for label.
func (m *Monitor) Stats(label string) PerformanceStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := m.samples[label]
	stats := PerformanceStats{Label: label}
	if len(window) == 0 {
		return stats
	}
	var total int64
	stats.MinNanos = window[0].durationNanos
	stats.MaxNanos = window[0].durationNanos
	for _, s := range window {
		total += s.durationNanos
		if s.durationNanos < stats.MinNanos {
			stats.MinNanos = s.durationNanos
		}
		if s.durationNanos > stats.MaxNanos {
			stats.MaxNanos = s.durationNanos
		}
	}
	stats.Count = uint64(len(window))
	stats.AvgNanos = float64(total) / float64(len(window))
	stats.LastNanos = window[len(window)-1].durationNanos
	return stats
}

// Labels returns every label with at least one recorded sample.
func (m *Monitor) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.samples))
	for label := range m.samples {
		out = append(out, label)
	}
	return out
}

// Reset discards every recorded sample.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = make(map[string][]performanceSample)
}
