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

import "github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"

// UpdateAllocation records a size-byte allocation. current_memory_usage
// and peak_memory_usage are maintained per the invariants in spec.md §3:
// peak is updated via a CAS loop so concurrent updaters never lose a
// larger observed value.
func (r *Registry) UpdateAllocation(size uint64) {
	if !r.Enabled() {
		return
	}
	r.Memory.BytesAllocated.FetchAdd(size, atomics.Relaxed)
	r.Memory.AllocationCount.FetchAdd(1, atomics.Relaxed)
	cur := r.currentMemoryUsage()
	r.Memory.PeakMemoryUsage.CompareAndSwapMax(cur)
}

// UpdateDeallocation records a size-byte deallocation.
// bytes_deallocated never exceeds bytes_allocated by construction: the
// caller is expected to only report sizes it previously allocated.
func (r *Registry) UpdateDeallocation(size uint64) {
	if !r.Enabled() {
		return
	}
	r.Memory.BytesDeallocated.FetchAdd(size, atomics.Relaxed)
	r.Memory.DeallocationCount.FetchAdd(1, atomics.Relaxed)
	r.currentMemoryUsage()
}

// currentMemoryUsage recomputes allocations-minus-deallocations, clamped
// at zero, and publishes it to CurrentMemoryUsage. Returns the clamped
// value for the peak-update CAS in UpdateAllocation.
func (r *Registry) currentMemoryUsage() uint64 {
	allocated := r.Memory.BytesAllocated.Load(atomics.Acquire)
	deallocated := r.Memory.BytesDeallocated.Load(atomics.Acquire)
	var cur uint64
	if allocated > deallocated {
		cur = allocated - deallocated
	}
	r.Memory.CurrentMemoryUsage.Store(cur, atomics.Release)
	return cur
}

// RecordAllocationFailure records a failed allocation attempt.
func (r *Registry) RecordAllocationFailure() {
	if !r.Enabled() {
		return
	}
	r.Memory.AllocationFailures.FetchAdd(1, atomics.Relaxed)
}

// UpdateGCCollection records a completed GC pass of the given duration.
// Min/max are both maintained via CAS loops; min starts at the sentinel
// primed by Init.
func (r *Registry) UpdateGCCollection(durationNanos uint64, bytesReclaimed uint64) {
	if !r.Enabled() {
		return
	}
	r.GC.CollectionCount.FetchAdd(1, atomics.Relaxed)
	r.GC.TotalTimeNanos.FetchAdd(durationNanos, atomics.Relaxed)
	r.GC.BytesReclaimed.FetchAdd(bytesReclaimed, atomics.Relaxed)
	r.GC.MinTimeNanos.CompareAndSwapMin(durationNanos)
	r.GC.MaxTimeNanos.CompareAndSwapMax(durationNanos)
}

// UpdateCompilation records one compiled translation unit.
func (r *Registry) UpdateCompilation(durationNanos uint64, files, lines uint64) {
	if !r.Enabled() {
		return
	}
	r.Performance.CompilationCount.FetchAdd(1, atomics.Relaxed)
	r.Performance.CompilationTimeNanos.FetchAdd(durationNanos, atomics.Relaxed)
	r.Performance.FilesCompiled.FetchAdd(files, atomics.Relaxed)
	r.Performance.LinesCompiled.FetchAdd(lines, atomics.Relaxed)
}

// RecordSemanticAnalysisTime / RecordCodeGenTime / RecordOptimizationTime
// accumulate the C10 driver pipeline's per-stage elapsed time (spec.md
// §4.10) alongside the overall CompilationTimeNanos recorded above.
func (r *Registry) RecordSemanticAnalysisTime(durationNanos uint64) {
	if !r.Enabled() {
		return
	}
	r.Performance.SemanticAnalysisTimeNanos.FetchAdd(durationNanos, atomics.Relaxed)
}

func (r *Registry) RecordCodeGenTime(durationNanos uint64) {
	if !r.Enabled() {
		return
	}
	r.Performance.CodeGenTimeNanos.FetchAdd(durationNanos, atomics.Relaxed)
}

func (r *Registry) RecordOptimizationTime(durationNanos uint64) {
	if !r.Enabled() {
		return
	}
	r.Performance.OptimizationTimeNanos.FetchAdd(durationNanos, atomics.Relaxed)
}

// RecordThreadCreated / RecordThreadDestroyed track C3's thread registry.
func (r *Registry) RecordThreadCreated() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.ThreadsCreated.FetchAdd(1, atomics.Relaxed)
}

func (r *Registry) RecordThreadDestroyed() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.ThreadsDestroyed.FetchAdd(1, atomics.Relaxed)
}

// RecordTaskSpawned / RecordTaskCompleted / RecordTaskFailed /
// RecordTaskCancelled track C3's task lifecycle.
func (r *Registry) RecordTaskSpawned() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.TasksSpawned.FetchAdd(1, atomics.Relaxed)
}

func (r *Registry) RecordTaskCompleted() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.TasksCompleted.FetchAdd(1, atomics.Relaxed)
}

func (r *Registry) RecordTaskFailed() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.TasksFailed.FetchAdd(1, atomics.Relaxed)
}

func (r *Registry) RecordTaskCancelled() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.TasksCancelled.FetchAdd(1, atomics.Relaxed)
}

// RecordCallbackEnqueued / RecordCallbackProcessed track C3's callback
// queue throughput.
func (r *Registry) RecordCallbackEnqueued() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.CallbacksEnqueued.FetchAdd(1, atomics.Relaxed)
}

func (r *Registry) RecordCallbackProcessed() {
	if !r.Enabled() {
		return
	}
	r.Concurrency.CallbacksProcessed.FetchAdd(1, atomics.Relaxed)
}
