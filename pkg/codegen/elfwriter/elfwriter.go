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

// Package elfwriter builds the string, symbol, and section tables of a
// single compile unit's object file (spec.md §4.7). It borrows only the
// section-type/flag *constants* from the standard library's debug/elf
// package (SHT_PROGBITS, SHF_ALLOC, and friends) rather than hand-rolling
// them: no example repo in the retrieved corpus links an ELF-writing
// library, so this is the one place SPEC_FULL.md's "justify any stdlib
// use" rule is satisfied by "there is nothing else to reach for" — the
// actual byte layout below (tables, offsets, heuristics) is original to
// this package, not a debug/elf serializer.
package elfwriter

import "debug/elf"

// stringTable is append-only and null-terminated, starting with a
// single null byte at offset 0 (spec.md §4.7 invariant).
type stringTable struct {
	data []byte
}

func newStringTable() *stringTable {
	return &stringTable{data: []byte{0}}
}

// Insert appends s (plus its terminating null) and returns the byte
// offset of the inserted string.
func (t *stringTable) Insert(s string) uint32 {
	offset := uint32(len(t.data))
	t.data = append(t.data, s...)
	t.data = append(t.data, 0)
	return offset
}

func (t *stringTable) Bytes() []byte { return t.data }

// Symbol is one entry in the symbol table.
type Symbol struct {
	Name    string
	Value   uint64
	Size    uint64
	Section string
	Binding elf.SymBind
	Type    elf.SymType
	nameOff uint32
}

// Section is one addable section, owning a growable data buffer.
type Section struct {
	Name  string
	Type  elf.SectionType
	Flags elf.SectionFlag
	data  []byte
}

// Grow appends more bytes to the section's data buffer.
func (s *Section) Grow(more []byte) {
	s.data = append(s.data, more...)
}

// Data returns the section's current byte contents.
func (s *Section) Data() []byte { return s.data }

// Writer accumulates section, symbol, and string tables for one
// compile unit. Not safe for concurrent use (spec.md §5: the driver
// uses it from a single thread).
type Writer struct {
	strings  *stringTable
	sections []*Section
	symbols  []*Symbol
	secIndex map[string]int
	symIndex map[string]int
}

// New constructs a Writer with the reserved null section at index 0
// and the reserved undefined symbol at index 0 (spec.md §4.7
// invariants).
func New() *Writer {
	w := &Writer{
		strings:  newStringTable(),
		secIndex: make(map[string]int),
		symIndex: make(map[string]int),
	}
	w.sections = append(w.sections, &Section{Name: ""})
	w.secIndex[""] = 0
	w.symbols = append(w.symbols, &Symbol{Name: ""})
	w.symIndex[""] = 0
	return w
}

// AddSection creates a new section, returning its index (never 0, the
// reserved null section).
func (w *Writer) AddSection(name string, typ elf.SectionType, flags elf.SectionFlag) int {
	if idx, ok := w.secIndex[name]; ok {
		return idx
	}
	sec := &Section{Name: name, Type: typ, Flags: flags}
	w.sections = append(w.sections, sec)
	idx := len(w.sections) - 1
	w.secIndex[name] = idx
	return idx
}

// Section looks up a previously-added section by name.
func (w *Writer) Section(name string) (*Section, bool) {
	idx, ok := w.secIndex[name]
	if !ok || idx == 0 {
		return nil, false
	}
	return w.sections[idx], true
}

// AddSymbol records a symbol, interning its name into the string
// table, and returns its index (never 0, the reserved undefined
// symbol).
func (w *Writer) AddSymbol(sym Symbol) int {
	sym.nameOff = w.strings.Insert(sym.Name)
	w.symbols = append(w.symbols, &sym)
	idx := len(w.symbols) - 1
	w.symIndex[sym.Name] = idx
	return idx
}

// Symbol looks up a previously-added symbol by name.
func (w *Writer) Symbol(name string) (*Symbol, bool) {
	idx, ok := w.symIndex[name]
	if !ok || idx == 0 {
		return nil, false
	}
	return w.symbols[idx], true
}

// StringTableBytes returns the accumulated string table.
func (w *Writer) StringTableBytes() []byte { return w.strings.Bytes() }

// SectionCount and SymbolCount report table sizes, including the
// reserved zero entries.
func (w *Writer) SectionCount() int { return len(w.sections) }
func (w *Writer) SymbolCount() int  { return len(w.symbols) }

// DebugSizes are heuristic estimates of DWARF-like debug-section sizes,
// computed as fractions of the total debug-info section size rather
// than by parsing actual DWARF (spec.md §4.7: "document as
// approximations").
type DebugSizes struct {
	CompileUnitSize   uint64
	FunctionDebugSize uint64
	AbbrevTableSize   uint64
	TypeDebugSize     uint64
}

// EstimateDebugSizes derives DebugSizes from totalDebugInfoSize using
// fixed proportions observed in typical DWARF output: abbreviation
// tables are small and roughly constant-factor, compile-unit headers
// are a small fixed fraction, and the remainder splits between function
// and type debug info.
func EstimateDebugSizes(totalDebugInfoSize uint64) DebugSizes {
	return DebugSizes{
		CompileUnitSize:   totalDebugInfoSize / 20,
		FunctionDebugSize: totalDebugInfoSize * 6 / 10,
		AbbrevTableSize:   totalDebugInfoSize / 25,
		TypeDebugSize:     totalDebugInfoSize * 3 / 10,
	}
}
