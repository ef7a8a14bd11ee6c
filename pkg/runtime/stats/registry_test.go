// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

func TestRegistry_AllocationRoundTripRestoresUsage(t *testing.T) {
	r := New(nil)
	r.Init()

	r.UpdateAllocation(100)
	if got := r.Memory.CurrentMemoryUsage.Load(atomics.Acquire); got != 100 {
		t.Fatalf("current usage = %d, want 100", got)
	}
	r.UpdateDeallocation(100)
	r.currentMemoryUsage() // republishing again is idempotent: UpdateDeallocation has already published the new value
	if got := r.Memory.CurrentMemoryUsage.Load(atomics.Acquire); got != 0 {
		t.Fatalf("current usage after round trip = %d, want 0", got)
	}
}

func TestRegistry_PeakMemoryUsageNonDecreasing(t *testing.T) {
	r := New(nil)
	r.Init()

	r.UpdateAllocation(50)
	r.UpdateAllocation(200)
	r.UpdateDeallocation(100)
	r.currentMemoryUsage()

	if got := r.Memory.PeakMemoryUsage.Load(atomics.Acquire); got < 250 {
		t.Fatalf("peak = %d, want >= 250", got)
	}
}

func TestRegistry_ResetPreservesEnabled(t *testing.T) {
	r := New(nil)
	r.Init()
	r.UpdateAllocation(10)
	r.Reset()

	if !r.Enabled() {
		t.Fatalf("Enabled() = false after Reset, want true")
	}
	if got := r.Memory.BytesAllocated.Load(atomics.Acquire); got != 0 {
		t.Fatalf("bytes_allocated = %d after Reset, want 0", got)
	}
}

func TestRegistry_DisabledSnapshotIsZero(t *testing.T) {
	r := New(nil)
	// Init not called: disabled by default.
	r.UpdateAllocation(999)
	snap := r.Snapshot()
	if snap.Memory["bytes_allocated"] != 0 {
		t.Fatalf("disabled snapshot leaked a mutation: %+v", snap.Memory)
	}
	if snap.System["statistics_enabled"] != false {
		t.Fatalf("system.statistics_enabled = %v, want false", snap.System["statistics_enabled"])
	}
}

func TestRegistry_ExportJSONSchema(t *testing.T) {
	r := New(nil)
	r.Init()
	r.UpdateAllocation(10)

	var buf bytes.Buffer
	if err := r.PrintReport(&buf, true); err != nil {
		t.Fatalf("PrintReport(json) error: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"memory", "gc", "performance", "concurrency", "system"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
}
