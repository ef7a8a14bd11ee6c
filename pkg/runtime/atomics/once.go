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

import "sync"

// CallOnce runs an initializer exactly once across concurrent callers,
// mirroring the *TreeSitterParser.parserInit sync.Once pattern in
// pkg/ingestion/parser_treesitter.go. spec.md §4.1 additionally asks for
// a fast-path atomic flag ahead of the platform once-primitive, since
// some native once implementations are fragile under copy/relocation;
// Go's sync.Once has no such hazard, but the extra flag is kept so a
// caller can cheaply test "has Do ever returned" without taking the
// Once's internal lock, and so the type's contract matches the spec
// even though the underlying guarantee is already total.
type CallOnce struct {
	once Once
	done Counter
}

// Once is a thin indirection over sync.Once so CallOnce's zero value is
// ready to use without an explicit constructor, matching the teacher's
// "declare the sync.Once as a struct field, no New needed" style.
type Once = sync.Once

// Do runs fn exactly once. Subsequent calls (even concurrent ones) block
// until the first completes and then return without running fn again.
func (c *CallOnce) Do(fn func()) {
	c.once.Do(func() {
		fn()
		c.done.Store(1, Release)
	})
}

// HasRun reports whether Do has ever completed, via the fast-path
// atomic flag described above.
func (c *CallOnce) HasRun() bool {
	return c.done.Load(Acquire) == 1
}
