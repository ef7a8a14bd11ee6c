// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package reloc

import (
	"encoding/binary"
	"testing"
)

func TestManager_AddAndFindByOffset(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 16, "main", 0)
	r, ok := m.FindByOffset(".text", 16)
	if !ok || r.Type != TypeAbsolute || r.Symbol != "main" {
		t.Fatalf("find = %+v, ok=%v", r, ok)
	}
}

func TestManager_FindBySymbolReturnsAllMatches(t *testing.T) {
	m := New()
	m.AddFFICall(".text", 0, "asthra_ffi_call")
	m.AddFFICall(".text", 8, "asthra_ffi_call")
	m.AddAbsolute(".text", 16, "other", 0)
	matches := m.FindBySymbol("asthra_ffi_call")
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestManager_UpdateAddendNotFound(t *testing.T) {
	m := New()
	if err := m.UpdateAddend(".text", 0, 4); err == nil {
		t.Fatal("expected error updating addend of nonexistent relocation")
	}
}

func TestManager_UpdateAddendSucceeds(t *testing.T) {
	m := New()
	m.AddAbsolute(".data", 4, "sym", 0)
	if err := m.UpdateAddend(".data", 4, 12); err != nil {
		t.Fatalf("update: %v", err)
	}
	r, _ := m.FindByOffset(".data", 4)
	if r.Addend != 12 {
		t.Fatalf("addend = %d, want 12", r.Addend)
	}
}

func TestManager_ValidateTableRejectsDuplicateOffsetType(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 8, "a", 0)
	m.AddAbsolute(".text", 8, "b", 0)
	if err := m.ValidateTable(); err == nil {
		t.Fatal("expected validation error for duplicate (section, offset, type)")
	}
}

func TestManager_ValidateTableAllowsSameOffsetDifferentType(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 8, "a", 0)
	m.AddPCRelative(".text", 8, "b", 0)
	if err := m.ValidateTable(); err != nil {
		t.Fatalf("expected valid table, got %v", err)
	}
}

func TestManager_ValidateTableRejectsEmptySymbol(t *testing.T) {
	m := New()
	m.AddRelocation(".text", 0, TypeAbsolute, "", 0)
	if err := m.ValidateTable(); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestManager_SortByOffsetOrdersAscending(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 16, "c", 0)
	m.AddAbsolute(".text", 4, "a", 0)
	m.AddAbsolute(".text", 8, "b", 0)
	m.SortByOffset()
	all := m.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].SectionOffset > all[i].SectionOffset {
			t.Fatalf("not sorted: %+v", all)
		}
	}
}

func TestManager_CountForSection(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 0, "a", 0)
	m.AddAbsolute(".data", 0, "b", 0)
	m.AddAbsolute(".text", 4, "c", 0)
	if m.CountForSection(".text") != 2 {
		t.Fatalf("count = %d, want 2", m.CountForSection(".text"))
	}
}

func TestManager_ApplyRelocationsPatchesBuffer(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 0, "target", 4)
	data := make([]byte, 16)
	err := m.ApplyRelocations(".text", data, func(symbol string) (uint64, bool) {
		if symbol == "target" {
			return 0x1000, true
		}
		return 0, false
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := binary.LittleEndian.Uint64(data[0:8])
	if got != 0x1004 {
		t.Fatalf("patched value = %#x, want %#x", got, 0x1004)
	}
}

func TestManager_ApplyRelocationsUnresolvedSymbolErrors(t *testing.T) {
	m := New()
	m.AddAbsolute(".text", 0, "missing", 0)
	data := make([]byte, 16)
	err := m.ApplyRelocations(".text", data, func(symbol string) (uint64, bool) { return 0, false })
	if err == nil {
		t.Fatal("expected error for unresolved symbol")
	}
}

func TestManager_GenerateSectionDataOrdersByOffsetThenType(t *testing.T) {
	m := New()
	m.AddPCRelative(".text", 8, "b", 0)
	m.AddAbsolute(".text", 8, "a", 0)
	m.AddAbsolute(".text", 0, "c", 0)
	data := m.GenerateSectionData(".text")
	if len(data) != 3*20 {
		t.Fatalf("data length = %d, want %d", len(data), 3*20)
	}
	wantOffsets := []uint64{0, 8, 8}
	wantTypes := []Type{TypeAbsolute, TypeAbsolute, TypePCRelative}
	for i := 0; i < 3; i++ {
		rec := data[i*20 : (i+1)*20]
		if got := binary.LittleEndian.Uint64(rec[0:8]); got != wantOffsets[i] {
			t.Fatalf("record %d offset = %d, want %d", i, got, wantOffsets[i])
		}
		if got := Type(binary.LittleEndian.Uint32(rec[8:12])); got != wantTypes[i] {
			t.Fatalf("record %d type = %v, want %v", i, got, wantTypes[i])
		}
	}
}

func TestType_StringCoversAllValues(t *testing.T) {
	for tp := TypeAbsolute; tp <= TypeSpawnCall; tp++ {
		if tp.String() == "unknown" {
			t.Fatalf("type %d stringified to unknown", tp)
		}
	}
}
