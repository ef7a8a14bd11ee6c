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

package stats

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// Snapshot is a point-in-time, eventually-consistent read of every
// counter (spec.md §4.2: "snapshot reads are not linearizable across
// counters ... acceptable for observability"). It is the shape
// serialized by ExportJSON, matching the "system.statistics_enabled" /
// "system.uptime_ns" schema in spec.md §6.
type Snapshot struct {
	Memory      map[string]uint64 `json:"memory"`
	GC          map[string]uint64 `json:"gc"`
	Performance map[string]uint64 `json:"performance"`
	Concurrency map[string]uint64 `json:"concurrency"`
	System      map[string]any    `json:"system"`
}

// Snapshot reads every counter under acquire ordering. If the registry
// is disabled, it returns a zero-valued snapshot (spec.md §4.2).
func (r *Registry) Snapshot() Snapshot {
	if !r.Enabled() {
		return zeroSnapshot(false, 0)
	}
	snap := Snapshot{
		Memory: map[string]uint64{
			"bytes_allocated":      r.Memory.BytesAllocated.Load(atomics.Acquire),
			"bytes_deallocated":    r.Memory.BytesDeallocated.Load(atomics.Acquire),
			"current_memory_usage": r.Memory.CurrentMemoryUsage.Load(atomics.Acquire),
			"peak_memory_usage":    r.Memory.PeakMemoryUsage.Load(atomics.Acquire),
			"allocation_count":     r.Memory.AllocationCount.Load(atomics.Acquire),
			"deallocation_count":   r.Memory.DeallocationCount.Load(atomics.Acquire),
			"allocation_failures":  r.Memory.AllocationFailures.Load(atomics.Acquire),
		},
		GC: map[string]uint64{
			"collection_count":  r.GC.CollectionCount.Load(atomics.Acquire),
			"total_time_ns":     r.GC.TotalTimeNanos.Load(atomics.Acquire),
			"min_time_ns":       normalizeSentinel(r.GC.MinTimeNanos.Load(atomics.Acquire)),
			"max_time_ns":       r.GC.MaxTimeNanos.Load(atomics.Acquire),
			"bytes_reclaimed":   r.GC.BytesReclaimed.Load(atomics.Acquire),
		},
		Performance: map[string]uint64{
			"compilation_count":            r.Performance.CompilationCount.Load(atomics.Acquire),
			"compilation_time_ns":          r.Performance.CompilationTimeNanos.Load(atomics.Acquire),
			"semantic_analysis_time_ns":    r.Performance.SemanticAnalysisTimeNanos.Load(atomics.Acquire),
			"code_generation_time_ns":      r.Performance.CodeGenTimeNanos.Load(atomics.Acquire),
			"optimization_time_ns":         r.Performance.OptimizationTimeNanos.Load(atomics.Acquire),
			"files_compiled":               r.Performance.FilesCompiled.Load(atomics.Acquire),
			"lines_compiled":               r.Performance.LinesCompiled.Load(atomics.Acquire),
		},
		Concurrency: map[string]uint64{
			"threads_created":     r.Concurrency.ThreadsCreated.Load(atomics.Acquire),
			"threads_destroyed":   r.Concurrency.ThreadsDestroyed.Load(atomics.Acquire),
			"tasks_spawned":       r.Concurrency.TasksSpawned.Load(atomics.Acquire),
			"tasks_completed":     r.Concurrency.TasksCompleted.Load(atomics.Acquire),
			"tasks_failed":        r.Concurrency.TasksFailed.Load(atomics.Acquire),
			"tasks_cancelled":     r.Concurrency.TasksCancelled.Load(atomics.Acquire),
			"callbacks_enqueued":  r.Concurrency.CallbacksEnqueued.Load(atomics.Acquire),
			"callbacks_processed": r.Concurrency.CallbacksProcessed.Load(atomics.Acquire),
		},
	}
	snap.System = map[string]any{
		"statistics_enabled": true,
		"uptime_ns":          r.UptimeNanos(),
	}
	return snap
}

func normalizeSentinel(v uint64) uint64 {
	if v == atomics.SentinelMax {
		return 0
	}
	return v
}

func zeroSnapshot(enabled bool, uptime uint64) Snapshot {
	zero := func(keys ...string) map[string]uint64 {
		m := make(map[string]uint64, len(keys))
		for _, k := range keys {
			m[k] = 0
		}
		return m
	}
	return Snapshot{
		Memory:      zero("bytes_allocated", "bytes_deallocated", "current_memory_usage", "peak_memory_usage", "allocation_count", "deallocation_count", "allocation_failures"),
		GC:          zero("collection_count", "total_time_ns", "min_time_ns", "max_time_ns", "bytes_reclaimed"),
		Performance: zero("compilation_count", "compilation_time_ns", "semantic_analysis_time_ns", "code_generation_time_ns", "optimization_time_ns", "files_compiled", "lines_compiled"),
		Concurrency: zero("threads_created", "threads_destroyed", "tasks_spawned", "tasks_completed", "tasks_failed", "tasks_cancelled", "callbacks_enqueued", "callbacks_processed"),
		System: map[string]any{
			"statistics_enabled": enabled,
			"uptime_ns":          uptime,
		},
	}
}

// ExportJSON marshals the current Snapshot. Per spec.md §4.2 ("allocating
// the JSON buffer may fail; caller receives null and should fall back to
// text"), a marshal failure returns nil rather than an error — the only
// failure mode json.Marshal has for this data shape is an out-of-memory
// condition, which in Go surfaces as a panic rather than an error value,
// so this is defensive bookkeeping rather than a realistic path.
func (r *Registry) ExportJSON() []byte {
	b, err := json.Marshal(r.Snapshot())
	if err != nil {
		return nil
	}
	return b
}

// PrintReport writes the Snapshot to sink, either as JSON or as the
// teacher's Markdown-report style (pkg/tools/status.go's "## Overall
// Index" headers), selected by json.
func (r *Registry) PrintReport(sink io.Writer, asJSON bool) error {
	if asJSON {
		b := r.ExportJSON()
		if b == nil {
			return fmt.Errorf("export json: marshal failed")
		}
		_, err := sink.Write(b)
		return err
	}
	snap := r.Snapshot()
	_, err := fmt.Fprintf(sink, "# Asthra Compiler Statistics\n\n"+
		"**Uptime:** %d ns\n\n"+
		"## Memory\n- bytes_allocated: %d\n- bytes_deallocated: %d\n- current_memory_usage: %d\n- peak_memory_usage: %d\n- allocation_failures: %d\n\n"+
		"## GC\n- collections: %d\n- min_time_ns: %d\n- max_time_ns: %d\n\n"+
		"## Performance\n- compilations: %d\n- files_compiled: %d\n- lines_compiled: %d\n\n"+
		"## Concurrency\n- threads_created: %d\n- tasks_spawned: %d\n- tasks_completed: %d\n- tasks_failed: %d\n",
		snap.System["uptime_ns"],
		snap.Memory["bytes_allocated"], snap.Memory["bytes_deallocated"], snap.Memory["current_memory_usage"], snap.Memory["peak_memory_usage"], snap.Memory["allocation_failures"],
		snap.GC["collection_count"], snap.GC["min_time_ns"], snap.GC["max_time_ns"],
		snap.Performance["compilation_count"], snap.Performance["files_compiled"], snap.Performance["lines_compiled"],
		snap.Concurrency["threads_created"], snap.Concurrency["tasks_spawned"], snap.Concurrency["tasks_completed"], snap.Concurrency["tasks_failed"],
	)
	return err
}
