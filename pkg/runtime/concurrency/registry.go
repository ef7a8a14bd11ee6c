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
	"unsafe"
)

// ThreadData is the per-thread record kept by ThreadRegistry: a GC-root
// set owned by the thread (spec.md §3 "ThreadRegistry") plus the linkage
// for the intrusive singly linked list.
type ThreadData struct {
	ThreadID uint64
	GCRoots  []unsafe.Pointer

	next *ThreadData
}

// ThreadRegistry is an intrusive singly-linked list of ThreadData, one
// entry per registered thread (spec.md §3/§9: "registries are singly
// linked" to avoid unnecessary back-pointers). All mutation is under mu.
type ThreadRegistry struct {
	mu    sync.Mutex
	head  *ThreadData
	count int
}

// NewThreadRegistry returns an empty registry.
func NewThreadRegistry() *ThreadRegistry { return &ThreadRegistry{} }

// Register adds a new ThreadData for threadID and returns it. Calling
// Register twice for the same threadID creates two distinct entries;
// callers are expected to call Unregister before re-registering, matching
// the base spec's "created on first registration" lifetime note.
func (r *ThreadRegistry) Register(threadID uint64) *ThreadData {
	td := &ThreadData{ThreadID: threadID}
	r.mu.Lock()
	defer r.mu.Unlock()
	td.next = r.head
	r.head = td
	r.count++
	return td
}

// Unregister removes the first ThreadData matching threadID, freeing its
// GC-root slice. Returns false if no matching entry was found.
func (r *ThreadRegistry) Unregister(threadID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *ThreadData
	for cur := r.head; cur != nil; cur = cur.next {
		if cur.ThreadID == threadID {
			if prev == nil {
				r.head = cur.next
			} else {
				prev.next = cur.next
			}
			cur.next = nil
			cur.GCRoots = nil
			r.count--
			return true
		}
		prev = cur
	}
	return false
}

// Count returns the number of registered threads.
func (r *ThreadRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Find returns the ThreadData for threadID, or nil if not registered.
func (r *ThreadRegistry) Find(threadID uint64) *ThreadData {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cur := r.head; cur != nil; cur = cur.next {
		if cur.ThreadID == threadID {
			return cur
		}
	}
	return nil
}

// Drain removes every entry from the registry, invoking fn on each
// before it is unlinked. Used by Bridge.Cleanup to free every
// registered thread's state during shutdown.
func (r *ThreadRegistry) Drain(fn func(*ThreadData)) {
	r.mu.Lock()
	head := r.head
	r.head = nil
	r.count = 0
	r.mu.Unlock()

	for cur := head; cur != nil; {
		next := cur.next
		cur.next = nil
		if fn != nil {
			fn(cur)
		}
		cur = next
	}
}
