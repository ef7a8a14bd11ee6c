// Copyright 2025 The Asthra Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats implements the process-wide Statistics Registry
// (spec.md §4.2): four atomic-counter domains (memory, gc, performance,
// concurrency) with a JSON/text snapshot view and, as a SPEC_FULL.md
// supplement, a Prometheus collector over the same counters.
package stats

import (
	"log/slog"
	"sync"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// Memory holds allocation-domain counters.
type Memory struct {
	BytesAllocated       atomics.Counter
	BytesDeallocated     atomics.Counter
	CurrentMemoryUsage   atomics.Counter
	PeakMemoryUsage      atomics.Counter
	AllocationCount      atomics.Counter
	DeallocationCount    atomics.Counter
	AllocationFailures   atomics.Counter
}

// GC holds garbage-collection-domain counters.
type GC struct {
	CollectionCount   atomics.Counter
	TotalTimeNanos    atomics.Counter
	MinTimeNanos      atomics.Counter
	MaxTimeNanos      atomics.Counter
	BytesReclaimed    atomics.Counter
}

// Performance holds compilation-domain counters. The four *TimeNanos
// sub-timers are the ones spec.md §4.10 asks the driver pipeline to
// report into: overall compilation plus the semantic-analysis,
// code-generation, and optimization stages it sequences.
type Performance struct {
	CompilationCount          atomics.Counter
	CompilationTimeNanos      atomics.Counter
	SemanticAnalysisTimeNanos atomics.Counter
	CodeGenTimeNanos          atomics.Counter
	OptimizationTimeNanos     atomics.Counter
	FilesCompiled             atomics.Counter
	LinesCompiled             atomics.Counter
}

// Concurrency holds task/thread-domain counters.
type Concurrency struct {
	ThreadsCreated   atomics.Counter
	ThreadsDestroyed atomics.Counter
	TasksSpawned     atomics.Counter
	TasksCompleted   atomics.Counter
	TasksFailed      atomics.Counter
	TasksCancelled   atomics.Counter
	CallbacksEnqueued atomics.Counter
	CallbacksProcessed atomics.Counter
}

// Registry is the process-wide Statistics Registry. The zero value is
// not ready to use; construct with New and call Init once at program
// start, matching the teacher's "constructor applies defaults" style
// (pkg/ingestion/config.go).
type Registry struct {
	logger *slog.Logger

	enabled   atomics.Counter // 1 = enabled, 0 = disabled
	startTime atomics.Counter

	Memory      Memory
	GC          GC
	Performance Performance
	Concurrency Concurrency

	mu sync.Mutex // guards reset/snapshot against concurrent Init/Shutdown only
}

// New constructs a disabled, zeroed Registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Init is idempotent: it sets the start time, enables collection, and
// primes GC.MinTimeNanos to the sentinel maximum (spec.md §4.2). Calling
// Init again after a successful Init is a no-op.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled.Load(atomics.Acquire) == 1 {
		return
	}
	r.startTime.Store(uint64(atomics.NowNanos()), atomics.Release)
	r.GC.MinTimeNanos.Store(atomics.SentinelMax, atomics.Relaxed)
	r.enabled.Store(1, atomics.Release)
	r.logger.Debug("stats registry initialized")
}

// Shutdown is idempotent and disables further mutation.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled.Store(0, atomics.Release)
}

// SetEnabled toggles the gate every mutator checks.
func (r *Registry) SetEnabled(on bool) {
	if on {
		r.enabled.Store(1, atomics.Release)
	} else {
		r.enabled.Store(0, atomics.Release)
	}
}

// Enabled reports the current gate state.
func (r *Registry) Enabled() bool { return r.enabled.Load(atomics.Acquire) == 1 }

// Reset zeroes all counters but preserves the enabled flag and start
// time, per spec.md §4.2.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Memory = Memory{}
	r.GC = GC{}
	r.Performance = Performance{}
	r.Concurrency = Concurrency{}
	r.GC.MinTimeNanos.Store(atomics.SentinelMax, atomics.Relaxed)
}

// StartTime returns the Timestamp recorded by Init.
func (r *Registry) StartTime() atomics.Timestamp { return r.startTime.Load(atomics.Acquire) }

// UptimeNanos returns nanoseconds elapsed since Init.
func (r *Registry) UptimeNanos() uint64 {
	start := r.StartTime()
	now := uint64(atomics.NowNanos())
	if now < start {
		return 0
	}
	return now - start
}
