// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package elfwriter

import (
	"debug/elf"
	"testing"
)

func TestNew_ReservesNullSectionAndSymbol(t *testing.T) {
	w := New()
	if w.SectionCount() != 1 || w.SymbolCount() != 1 {
		t.Fatalf("sectionCount=%d symbolCount=%d, want 1/1", w.SectionCount(), w.SymbolCount())
	}
	if len(w.StringTableBytes()) != 1 || w.StringTableBytes()[0] != 0 {
		t.Fatal("expected string table to start with a single null byte")
	}
}

func TestAddSection_IsIdempotentByName(t *testing.T) {
	w := New()
	idx1 := w.AddSection(".text", elf.SHT_PROGBITS, elf.SHF_ALLOC|elf.SHF_EXECINSTR)
	idx2 := w.AddSection(".text", elf.SHT_PROGBITS, elf.SHF_ALLOC|elf.SHF_EXECINSTR)
	if idx1 != idx2 {
		t.Fatalf("idx1=%d idx2=%d, want equal for repeat AddSection", idx1, idx2)
	}
	if w.SectionCount() != 2 {
		t.Fatalf("sectionCount = %d, want 2 (null + .text)", w.SectionCount())
	}
}

func TestSection_GrowAppendsData(t *testing.T) {
	w := New()
	w.AddSection(".data", elf.SHT_PROGBITS, elf.SHF_ALLOC|elf.SHF_WRITE)
	sec, ok := w.Section(".data")
	if !ok {
		t.Fatal(".data section not found")
	}
	sec.Grow([]byte{1, 2, 3})
	sec.Grow([]byte{4, 5})
	if len(sec.Data()) != 5 {
		t.Fatalf("data length = %d, want 5", len(sec.Data()))
	}
}

func TestSection_NullSectionNotFindableByName(t *testing.T) {
	w := New()
	if _, ok := w.Section(""); ok {
		t.Fatal("expected reserved null section to be unreachable via Section lookup")
	}
}

func TestAddSymbol_InternsNameAndReturnsIndex(t *testing.T) {
	w := New()
	idx := w.AddSymbol(Symbol{Name: "main", Value: 0x1000, Binding: elf.STB_GLOBAL, Type: elf.STT_FUNC})
	if idx != 1 {
		t.Fatalf("index = %d, want 1 (after reserved symbol 0)", idx)
	}
	sym, ok := w.Symbol("main")
	if !ok || sym.Value != 0x1000 {
		t.Fatalf("symbol = %+v, ok=%v", sym, ok)
	}
}

func TestEstimateDebugSizes_ComponentsSumCloseToTotal(t *testing.T) {
	sizes := EstimateDebugSizes(10000)
	total := sizes.CompileUnitSize + sizes.FunctionDebugSize + sizes.AbbrevTableSize + sizes.TypeDebugSize
	if total > 10000 {
		t.Fatalf("component sum %d exceeds total debug info size 10000", total)
	}
	if sizes.FunctionDebugSize == 0 {
		t.Fatal("expected nonzero function debug size heuristic")
	}
}
