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

package concurrency

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/stats"
)

// ThreadOptions controls how Bridge.CreateThread starts a task's
// goroutine (spec.md §4.3: "hybrid: if the platform exposes native
// threads and the caller prefers them ... use native; otherwise POSIX
// threads"). Go has no POSIX-vs-native distinction at the language
// level, so the hybrid knob is re-expressed the way cgo-heavy Go code
// actually makes it: PreferNative pins the goroutine to its OS thread
// for the task's lifetime via runtime.LockOSThread, which is exactly
// the mechanism real Go programs use when a task must keep a stable OS
// thread identity (e.g. for FFI calls that rely on thread-local state).
type ThreadOptions struct {
	PreferNative bool
	Deadline     func() (deadlineSet bool)
}

// Bridge is the concurrency runtime bridge of spec.md §4.3: task
// registry, callback queue, and thread registry wired to a shared
// Statistics Registry.
type Bridge struct {
	logger *slog.Logger
	stats  *stats.Registry

	initOnce  atomics.CallOnce
	initAgain atomics.Counter // 1 once Init has run to completion successfully

	maxTasks     int
	maxCallbacks int

	taskMu   sync.Mutex
	tasks    map[uint64]*TaskHandle
	nextTask atomics.Counter

	threads  *ThreadRegistry
	nextTID  atomics.Counter
	callback *CallbackQueue

	shutdownOnce sync.Once
}

// New constructs a Bridge bound to the given Statistics Registry. Call
// Init before use.
func New(logger *slog.Logger, reg *stats.Registry) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		logger:   logger,
		stats:    reg,
		tasks:    make(map[uint64]*TaskHandle),
		threads:  NewThreadRegistry(),
		callback: NewCallbackQueue(),
	}
}

// Init performs the once-only bridge initialization described in
// spec.md §4.3. Subsequent calls after a successful Init are no-ops; a
// failed Init is surfaced again on every subsequent call so the caller
// cannot silently proceed with a half-initialized bridge.
func (b *Bridge) Init(maxTasks, maxCallbacks int) *asthraerr.Error {
	if maxTasks <= 0 || maxCallbacks <= 0 {
		return asthraerr.New(asthraerr.KindConfiguration, "concurrency", "maxTasks and maxCallbacks must be positive")
	}
	b.initOnce.Do(func() {
		b.maxTasks = maxTasks
		b.maxCallbacks = maxCallbacks
		b.initAgain.Store(1, atomics.Release)
	})
	if b.initAgain.Load(atomics.Acquire) != 1 {
		// Do ran on a prior, failed attempt path is not reachable in this
		// implementation (construction cannot fail), but the flag is
		// checked anyway so a future fallible step added to Init fails
		// closed rather than silently succeeding.
		return asthraerr.WrapFatal(asthraerr.KindResource, "concurrency", "bridge init did not complete", nil)
	}
	return nil
}

// Cleanup broadcasts shutdown to the callback queue, drains the task
// registry and thread registry, and clears initialization state
// (spec.md §4.3). It is safe to call even if Init was never called.
func (b *Bridge) Cleanup() {
	b.shutdownOnce.Do(func() {
		b.callback.Shutdown()

		b.taskMu.Lock()
		for id := range b.tasks {
			delete(b.tasks, id)
		}
		b.taskMu.Unlock()

		b.threads.Drain(func(td *ThreadData) {
			td.GCRoots = nil
		})

		b.initAgain.Store(0, atomics.Release)
	})
}

// SpawnTask creates a TaskHandle, registers it, and runs fn in a new
// goroutine (optionally pinned to its OS thread per opts). The handle's
// state transitions spawned -> started -> completed|failed as fn runs;
// a panic inside fn is recovered and reported as a failed result rather
// than crashing the process, matching the "concurrency contract: all
// mutating operations are thread-safe" guarantee in spec.md §5.
func (b *Bridge) SpawnTask(fn func(*TaskHandle) (any, error), opts ThreadOptions) *TaskHandle {
	id := b.nextTask.FetchAdd(1, atomics.AcqRel) + 1
	handle := &TaskHandle{ID: id}
	handle.setState(TaskSpawned)

	b.taskMu.Lock()
	b.tasks[id] = handle
	b.taskMu.Unlock()

	if b.stats != nil {
		b.stats.RecordTaskSpawned()
	}

	go func() {
		if opts.PreferNative {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		tid := b.nextTID.FetchAdd(1, atomics.AcqRel) + 1
		handle.OwnerThread = tid
		b.RegisterThread(tid)
		defer b.UnregisterThread(tid)

		handle.setState(TaskStarted)
		defer func() {
			if r := recover(); r != nil {
				handle.complete(TaskResult{OK: false, Err: fmt.Errorf("task panic: %v", r)})
				if b.stats != nil {
					b.stats.RecordTaskFailed()
				}
			}
		}()

		val, err := fn(handle)
		if handle.CancelRequested() {
			handle.setState(TaskCancelled)
			if b.stats != nil {
				b.stats.RecordTaskCancelled()
			}
			return
		}
		if err != nil {
			handle.complete(TaskResult{OK: false, Err: err})
			if b.stats != nil {
				b.stats.RecordTaskFailed()
			}
			return
		}
		handle.complete(TaskResult{OK: true, Value: val})
		if b.stats != nil {
			b.stats.RecordTaskCompleted()
		}
	}()

	return handle
}

// RegisterThread / UnregisterThread expose the thread registry,
// incrementing/decrementing the Statistics Registry's thread counters.
func (b *Bridge) RegisterThread(threadID uint64) *ThreadData {
	td := b.threads.Register(threadID)
	if b.stats != nil {
		b.stats.RecordThreadCreated()
	}
	return td
}

func (b *Bridge) UnregisterThread(threadID uint64) bool {
	ok := b.threads.Unregister(threadID)
	if ok && b.stats != nil {
		b.stats.RecordThreadDestroyed()
	}
	return ok
}

// CallbackEnqueue / CallbackProcess expose the callback queue.
func (b *Bridge) CallbackEnqueue(cb Callback) {
	b.callback.Enqueue(cb)
	if b.stats != nil {
		b.stats.RecordCallbackEnqueued()
	}
}

func (b *Bridge) CallbackProcess() {
	b.callback.Process()
}

// GetStats returns the bridge's own lightweight counters (task/thread
// counts); the shared Statistics Registry (C2) remains the source of
// truth for cumulative totals.
func (b *Bridge) GetStats() (tasks int, threads int) {
	b.taskMu.Lock()
	tasks = len(b.tasks)
	b.taskMu.Unlock()
	threads = b.threads.Count()
	return
}

// ResetStats clears the bridge's own counters; it does not touch the
// shared Statistics Registry.
func (b *Bridge) ResetStats() {
	b.nextTask.Reset()
	b.nextTID.Reset()
}

// DumpState writes a human-readable summary of the bridge's live state
// to sink, for debugging hung compiles.
func (b *Bridge) DumpState(sink io.Writer) error {
	tasks, threads := b.GetStats()
	produced, consumed := b.callback.Stats()
	_, err := fmt.Fprintf(sink, "bridge state: tasks=%d threads=%d callbacks_queued=%d callbacks_produced=%d callbacks_consumed=%d\n",
		tasks, threads, b.callback.Len(), produced, consumed)
	return err
}
