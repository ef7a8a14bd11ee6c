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

// Package reloc implements the Relocation Manager (spec.md §4.6): a
// growable table of (section-offset, type, symbol, addend) records,
// owned and mutated from a single thread per invocation; it carries no
// internal locking and expects callers not to share a Manager across
// goroutines.
package reloc

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
)

// Type enumerates the standard plus Asthra-specific relocation
// flavors of spec.md §4.6.
type Type int

const (
	TypeAbsolute Type = iota
	TypePCRelative
	TypeGOT
	TypePLT
	TypeRelative
	TypeFFICall
	TypePatternMatchJump
	TypeStringOp
	TypeSliceBounds
	TypeSpawnCall
)

func (t Type) String() string {
	names := [...]string{
		"absolute", "pc_relative", "got", "plt", "relative",
		"ffi_call", "pattern_match_jump", "string_op", "slice_bounds", "spawn_call",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// Relocation is one entry in the table.
type Relocation struct {
	SectionOffset uint64
	Type          Type
	Symbol        string
	Addend        int64
	Section       string
}

// Manager owns the relocation table for one compile unit. Not safe for
// concurrent use, per spec.md §5's "ELF writer and relocation manager
// are not thread-safe" shared-resource policy.
type Manager struct {
	entries []Relocation
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{}
}

// AddRelocation appends a raw relocation entry.
func (m *Manager) AddRelocation(section string, offset uint64, typ Type, symbol string, addend int64) {
	m.entries = append(m.entries, Relocation{SectionOffset: offset, Type: typ, Symbol: symbol, Addend: addend, Section: section})
}

// AddAbsolute, AddPCRelative, AddGOT, AddPLT, and AddRelative add the
// standard ELF relocation flavors.
func (m *Manager) AddAbsolute(section string, offset uint64, symbol string, addend int64) {
	m.AddRelocation(section, offset, TypeAbsolute, symbol, addend)
}

func (m *Manager) AddPCRelative(section string, offset uint64, symbol string, addend int64) {
	m.AddRelocation(section, offset, TypePCRelative, symbol, addend)
}

func (m *Manager) AddGOT(section string, offset uint64, symbol string, addend int64) {
	m.AddRelocation(section, offset, TypeGOT, symbol, addend)
}

func (m *Manager) AddPLT(section string, offset uint64, symbol string, addend int64) {
	m.AddRelocation(section, offset, TypePLT, symbol, addend)
}

func (m *Manager) AddRelative(section string, offset uint64, symbol string, addend int64) {
	m.AddRelocation(section, offset, TypeRelative, symbol, addend)
}

// AddFFICall, AddPatternMatch, AddStringOp, AddSliceBounds, and
// AddSpawn add the Asthra-specific flavors, each recording the
// resolved runtime-function symbol by name (spec.md §4.6).
func (m *Manager) AddFFICall(section string, offset uint64, runtimeSymbol string) {
	m.AddRelocation(section, offset, TypeFFICall, runtimeSymbol, 0)
}

func (m *Manager) AddPatternMatch(section string, offset uint64, jumpTableSymbol string) {
	m.AddRelocation(section, offset, TypePatternMatchJump, jumpTableSymbol, 0)
}

func (m *Manager) AddStringOp(section string, offset uint64, runtimeSymbol string) {
	m.AddRelocation(section, offset, TypeStringOp, runtimeSymbol, 0)
}

func (m *Manager) AddSliceBounds(section string, offset uint64, runtimeSymbol string) {
	m.AddRelocation(section, offset, TypeSliceBounds, runtimeSymbol, 0)
}

func (m *Manager) AddSpawn(section string, offset uint64, runtimeSymbol string) {
	m.AddRelocation(section, offset, TypeSpawnCall, runtimeSymbol, 0)
}

// FindByOffset returns the relocation at offset within section, if
// any.
func (m *Manager) FindByOffset(section string, offset uint64) (Relocation, bool) {
	for _, r := range m.entries {
		if r.Section == section && r.SectionOffset == offset {
			return r, true
		}
	}
	return Relocation{}, false
}

// FindBySymbol returns every relocation referencing symbol.
func (m *Manager) FindBySymbol(symbol string) []Relocation {
	var out []Relocation
	for _, r := range m.entries {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out
}

// UpdateAddend rewrites the addend of the relocation at (section,
// offset), returning a NotFound error if none exists.
func (m *Manager) UpdateAddend(section string, offset uint64, addend int64) *asthraerr.Error {
	for i := range m.entries {
		if m.entries[i].Section == section && m.entries[i].SectionOffset == offset {
			m.entries[i].Addend = addend
			return nil
		}
	}
	return asthraerr.New(asthraerr.KindNotFound, "reloc", "no relocation at given section offset")
}

// ByType returns every relocation of the given type.
func (m *Manager) ByType(typ Type) []Relocation {
	var out []Relocation
	for _, r := range m.entries {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

// CountForSection returns how many relocations target section.
func (m *Manager) CountForSection(section string) int {
	count := 0
	for _, r := range m.entries {
		if r.Section == section {
			count++
		}
	}
	return count
}

// SortByOffset orders entries by SectionOffset ascending.
func (m *Manager) SortByOffset() {
	sort.SliceStable(m.entries, func(i, j int) bool { return m.entries[i].SectionOffset < m.entries[j].SectionOffset })
}

// SortByType orders entries by Type ascending.
func (m *Manager) SortByType() {
	sort.SliceStable(m.entries, func(i, j int) bool { return m.entries[i].Type < m.entries[j].Type })
}

// ValidateTable checks that every relocation, including the
// Asthra-specific flavors, references a non-empty symbol, and that
// (section, offset, type) triples are unique, per spec.md §4.6: "each
// (offset, type) pair must be unique per section".
func (m *Manager) ValidateTable() *asthraerr.Error {
	seen := make(map[string]bool, len(m.entries))
	for _, r := range m.entries {
		if r.Symbol == "" {
			return asthraerr.New(asthraerr.KindConfiguration, "reloc", "relocation has an empty symbol")
		}
		key := r.Section + "|" + r.Type.String() + "|" + strconv.FormatUint(r.SectionOffset, 10)
		if seen[key] {
			return asthraerr.New(asthraerr.KindConfiguration, "reloc", "duplicate (section, offset, type) relocation entry")
		}
		seen[key] = true
	}
	return nil
}

// ApplyRelocations patches section, a mutable copy of the section's raw
// bytes, using the table's resolved addresses for test use (spec.md
// §4.6: "for test use — writes patched bytes into the section
// buffer"). resolve maps a symbol name to its resolved address.
func (m *Manager) ApplyRelocations(section string, data []byte, resolve func(symbol string) (uint64, bool)) *asthraerr.Error {
	for _, r := range m.entries {
		if r.Section != section {
			continue
		}
		addr, ok := resolve(r.Symbol)
		if !ok {
			return asthraerr.New(asthraerr.KindNotFound, "reloc", "could not resolve symbol "+r.Symbol)
		}
		value := uint64(int64(addr) + r.Addend)
		if r.SectionOffset+8 > uint64(len(data)) {
			return asthraerr.New(asthraerr.KindOverflow, "reloc", "relocation offset exceeds section buffer length")
		}
		binary.LittleEndian.PutUint64(data[r.SectionOffset:], value)
	}
	return nil
}

// GenerateSectionData serializes this section's relocations, sorted by
// offset ascending with ties broken by type ordinal, to the wire layout
// consumed by the ELF writer: a sequence of (offset uint64, type
// uint32, addend int64) records.
func (m *Manager) GenerateSectionData(section string) []byte {
	var filtered []Relocation
	for _, r := range m.entries {
		if r.Section == section {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].SectionOffset != filtered[j].SectionOffset {
			return filtered[i].SectionOffset < filtered[j].SectionOffset
		}
		return filtered[i].Type < filtered[j].Type
	})

	buf := make([]byte, 0, len(filtered)*20)
	for _, r := range filtered {
		var rec [20]byte
		binary.LittleEndian.PutUint64(rec[0:8], r.SectionOffset)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(r.Type))
		binary.LittleEndian.PutUint64(rec[12:20], uint64(r.Addend))
		buf = append(buf, rec[:]...)
	}
	return buf
}

// All returns a copy of every tracked relocation.
func (m *Manager) All() []Relocation {
	out := make([]Relocation, len(m.entries))
	copy(out, m.entries)
	return out
}

// DecodedEntry is one record recovered from a GenerateSectionData byte
// stream. It carries offset/type/addend but not Symbol: the wire
// format, like a real ELF .rela section, resolves symbols through a
// table index rather than an embedded name, so a symbol name is not
// recoverable from the bytes alone.
type DecodedEntry struct {
	SectionOffset uint64
	Type          Type
	Addend        int64
}

// DecodeSectionData is the read-side counterpart of GenerateSectionData,
// used by the `reloc-dump` diagnostic command (SPEC_FULL.md supplemented
// feature #3: relocation tables stay inspectable through this read
// path). Returns an error if data is not a whole number of 20-byte
// records.
func (m *Manager) DecodeSectionData(data []byte) ([]DecodedEntry, *asthraerr.Error) {
	if len(data)%20 != 0 {
		return nil, asthraerr.New(asthraerr.KindConfiguration, "reloc", "relocation section data is not a multiple of the 20-byte record size")
	}
	out := make([]DecodedEntry, 0, len(data)/20)
	for i := 0; i < len(data); i += 20 {
		rec := data[i : i+20]
		out = append(out, DecodedEntry{
			SectionOffset: binary.LittleEndian.Uint64(rec[0:8]),
			Type:          Type(binary.LittleEndian.Uint32(rec[8:12])),
			Addend:        int64(binary.LittleEndian.Uint64(rec[12:20])),
		})
	}
	return out, nil
}
