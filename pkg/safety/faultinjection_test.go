// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import "testing"

func TestFaultInjector_DisabledNeverFires(t *testing.T) {
	f := NewFaultInjector(1)
	f.EnableFault(FaultTimeout, 1.0)
	if f.ShouldInjectFault(FaultTimeout) {
		t.Fatal("expected no fault while globally disabled")
	}
}

func TestFaultInjector_ProbabilityOneAlwaysFires(t *testing.T) {
	f := NewFaultInjector(42)
	f.Enable(true)
	f.EnableFault(FaultAllocationFailure, 1.0)
	for i := 0; i < 20; i++ {
		if !f.ShouldInjectFault(FaultAllocationFailure) {
			t.Fatalf("iteration %d: expected fault with probability 1.0", i)
		}
	}
	if f.TriggeredCount(FaultAllocationFailure) != 20 {
		t.Fatalf("triggered count = %d, want 20", f.TriggeredCount(FaultAllocationFailure))
	}
}

func TestFaultInjector_ProbabilityZeroNeverFires(t *testing.T) {
	f := NewFaultInjector(42)
	f.Enable(true)
	f.EnableFault(FaultDiskFull, 0.0)
	for i := 0; i < 20; i++ {
		if f.ShouldInjectFault(FaultDiskFull) {
			t.Fatalf("iteration %d: unexpected fault with probability 0.0", i)
		}
	}
}

func TestFaultInjector_UnarmedFaultNeverFires(t *testing.T) {
	f := NewFaultInjector(42)
	f.Enable(true)
	if f.ShouldInjectFault(FaultNetworkError) {
		t.Fatal("expected no fault for a type that was never armed")
	}
}

func TestFaultInjector_DisableFaultStopsFiring(t *testing.T) {
	f := NewFaultInjector(7)
	f.Enable(true)
	f.EnableFault(FaultCorruption, 1.0)
	f.DisableFault(FaultCorruption)
	if f.ShouldInjectFault(FaultCorruption) {
		t.Fatal("expected no fault after DisableFault")
	}
}

func TestFaultInjector_ResetClearsState(t *testing.T) {
	f := NewFaultInjector(7)
	f.Enable(true)
	f.EnableFault(FaultTimeout, 1.0)
	f.ShouldInjectFault(FaultTimeout)
	f.Reset()
	if f.TriggeredCount(FaultTimeout) != 0 {
		t.Fatal("expected triggered count reset to 0")
	}
	if f.ShouldInjectFault(FaultTimeout) {
		t.Fatal("expected injector disabled after reset")
	}
}

func TestLCG_DeterministicGivenSeed(t *testing.T) {
	a := newLCG(99)
	b := newLCG(99)
	for i := 0; i < 10; i++ {
		if a.next() != b.next() {
			t.Fatal("two LCGs with the same seed diverged")
		}
	}
}
