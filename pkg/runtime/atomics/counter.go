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

package atomics

import "sync/atomic"

// Counter is a 64-bit unsigned word with load/store/fetch-add/fetch-sub
// parameterized by Order (spec.md §3 "AtomicCounter"). The zero value is
// ready to use.
type Counter struct {
	v atomic.Uint64
}

// NewCounter returns a Counter initialized to initial.
func NewCounter(initial uint64) *Counter {
	c := &Counter{}
	c.v.Store(initial)
	return c
}

// Load reads the counter. order is accepted for call-site fidelity with
// the base spec; see the package doc comment.
func (c *Counter) Load(order Order) uint64 {
	_ = order
	return c.v.Load()
}

// Store writes the counter.
func (c *Counter) Store(value uint64, order Order) {
	_ = order
	c.v.Store(value)
}

// FetchAdd adds delta and returns the prior value.
func (c *Counter) FetchAdd(delta uint64, order Order) uint64 {
	_ = order
	return c.v.Add(delta) - delta
}

// FetchSub subtracts delta and returns the prior value. Saturates at 0
// rather than wrapping, matching the clamped current_memory_usage
// invariant in spec.md §3 — callers that need raw wraparound semantics
// should use FetchAdd with a two's-complement delta instead.
func (c *Counter) FetchSub(delta uint64, order Order) uint64 {
	_ = order
	for {
		cur := c.v.Load()
		next := uint64(0)
		if cur > delta {
			next = cur - delta
		}
		if c.v.CompareAndSwap(cur, next) {
			return cur
		}
	}
}

// CompareAndSwapMax atomically sets the counter to value if value is
// greater than the current value, via a CAS retry loop. Used by
// peak_memory_usage and max-collection-time updates (spec.md §3/§4.2).
func (c *Counter) CompareAndSwapMax(value uint64) {
	for {
		cur := c.v.Load()
		if value <= cur {
			return
		}
		if c.v.CompareAndSwap(cur, value) {
			return
		}
	}
}

// CompareAndSwapMin atomically sets the counter to value if value is
// less than the current value, via a CAS retry loop. Used by
// min-collection-time updates, which are primed to the sentinel
// math.MaxUint64 per spec.md §3.
func (c *Counter) CompareAndSwapMin(value uint64) {
	for {
		cur := c.v.Load()
		if value >= cur {
			return
		}
		if c.v.CompareAndSwap(cur, value) {
			return
		}
	}
}

// Reset zeroes the counter.
func (c *Counter) Reset() { c.v.Store(0) }
