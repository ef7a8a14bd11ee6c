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

// Package concurrency implements the hybrid task/thread runtime bridge
// (spec.md §4.3): task handles backed by goroutines, a callback queue,
// and a thread registry, all coordinated through atomic state and plain
// mutexes rather than a cooperative scheduler. The process-spawning
// half of the system (pkg/codegen/llvmtool) and this package share the
// same "wrap a blocking primitive, surface failures as errors" idiom
// from pkg/tools/git.go, adapted here from subprocess calls to
// goroutine lifecycles.
package concurrency

import (
	"time"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// TaskState is the state machine in spec.md §3 "TaskHandle".
type TaskState int

const (
	TaskSpawned TaskState = iota
	TaskStarted
	TaskSuspended
	TaskResumed
	TaskCompleted
	TaskFailed
	TaskCancelled
	TaskTimedOut
)

func (s TaskState) String() string {
	switch s {
	case TaskSpawned:
		return "spawned"
	case TaskStarted:
		return "started"
	case TaskSuspended:
		return "suspended"
	case TaskResumed:
		return "resumed"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	case TaskTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// TaskResult is the tagged ok|err result slot a TaskHandle carries once
// its function returns.
type TaskResult struct {
	OK    bool
	Value any
	Err   error
}

// TaskHandle is the opaque per-task record (spec.md §3). The owning
// Bridge keeps its handles in a map keyed by ID.
type TaskHandle struct {
	ID          uint64
	state       atomics.Counter // TaskState, stored as uint64
	OwnerThread uint64
	Deadline    time.Time // zero means no deadline
	cancel      atomics.Counter // 1 once cancellation has been requested

	result *TaskResult // set once, read after state == completed|failed

	next *TaskHandle // not used by the Bridge's map-based task registry
}

// State reads the task's current TaskState.
func (t *TaskHandle) State() TaskState {
	return TaskState(t.state.Load(atomics.Acquire))
}

// setState publishes a new TaskState with release ordering.
func (t *TaskHandle) setState(s TaskState) {
	t.state.Store(uint64(s), atomics.Release)
}

// RequestCancel sets the cooperative cancel flag (spec.md §5:
// "Cancellation is cooperative — user code must check the task's cancel
// flag").
func (t *TaskHandle) RequestCancel() {
	t.cancel.Store(1, atomics.Release)
}

// CancelRequested reports whether RequestCancel has been called.
func (t *TaskHandle) CancelRequested() bool {
	return t.cancel.Load(atomics.Acquire) == 1
}

// CheckDeadline transitions the task to TimedOut if a deadline is set
// and has passed, or to Cancelled if cancellation was requested,
// returning the resulting state. Call sites invoke this "on each
// transition" per spec.md §5.
func (t *TaskHandle) CheckDeadline(now time.Time) TaskState {
	if t.CancelRequested() {
		t.setState(TaskCancelled)
		return TaskCancelled
	}
	if !t.Deadline.IsZero() && now.After(t.Deadline) {
		t.setState(TaskTimedOut)
		return TaskTimedOut
	}
	return t.State()
}

// Result returns the task's result slot and whether it has been set.
func (t *TaskHandle) Result() (TaskResult, bool) {
	if t.result == nil {
		return TaskResult{}, false
	}
	return *t.result, true
}

// complete records a result and the terminal state it implies.
func (t *TaskHandle) complete(res TaskResult) {
	t.result = &res
	if res.OK {
		t.setState(TaskCompleted)
	} else {
		t.setState(TaskFailed)
	}
}
