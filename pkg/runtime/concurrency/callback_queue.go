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
	"sync"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// Callback is a deferred unit of work enqueued by generated code and
// drained by a consumer goroutine.
type Callback func()

// CallbackQueue is the FIFO described in spec.md §3/§4.3: single-
// producer-safe enqueue, single-consumer dequeue/drain under the
// queue's own mutex, with a shutdown flag that breaks a waiting
// consumer out of its wait.
type CallbackQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []Callback

	head     atomics.Counter
	tail     atomics.Counter
	size     atomics.Counter
	produced atomics.Counter
	consumed atomics.Counter
	shutdown atomics.Counter
}

// NewCallbackQueue returns a ready-to-use queue.
func NewCallbackQueue() *CallbackQueue {
	q := &CallbackQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds cb to the tail of the queue and wakes any waiting
// consumer. Safe to call from multiple producer goroutines.
func (q *CallbackQueue) Enqueue(cb Callback) {
	q.mu.Lock()
	q.buf = append(q.buf, cb)
	q.mu.Unlock()

	q.tail.FetchAdd(1, atomics.Release)
	q.size.FetchAdd(1, atomics.Release)
	q.produced.FetchAdd(1, atomics.Relaxed)
	q.cond.Broadcast()
}

// Process drains the queue in FIFO order, invoking each callback. It
// blocks on the condition variable while the queue is empty and returns
// once Shutdown has been called and the queue has been drained. Only
// one goroutine should call Process at a time (single-consumer
// contract); concurrent Process calls would race on draining order but
// not corrupt state, since buf access is always mutex-protected.
func (q *CallbackQueue) Process() {
	for {
		q.mu.Lock()
		for len(q.buf) == 0 && q.shutdown.Load(atomics.Acquire) == 0 {
			q.cond.Wait()
		}
		if len(q.buf) == 0 {
			q.mu.Unlock()
			return
		}
		cb := q.buf[0]
		q.buf = q.buf[1:]
		q.mu.Unlock()

		q.head.FetchAdd(1, atomics.Release)
		q.size.FetchSub(1, atomics.Release)
		q.consumed.FetchAdd(1, atomics.Relaxed)
		cb()
	}
}

// Shutdown sets the shutdown flag and wakes any waiting consumer so it
// can observe the flag and return once the queue is drained.
func (q *CallbackQueue) Shutdown() {
	q.shutdown.Store(1, atomics.Release)
	q.cond.Broadcast()
}

// Len returns the current queue length.
func (q *CallbackQueue) Len() uint64 { return q.size.Load(atomics.Acquire) }

// Stats returns the lifetime produced/consumed counts for observability.
func (q *CallbackQueue) Stats() (produced, consumed uint64) {
	return q.produced.Load(atomics.Relaxed), q.consumed.Load(atomics.Relaxed)
}
