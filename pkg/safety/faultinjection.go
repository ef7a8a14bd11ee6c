// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import "sync"

// FaultType enumerates the injectable fault categories of spec.md
// §4.4.7.
type FaultType int

const (
	FaultAllocationFailure FaultType = iota
	FaultFFIFailure
	FaultTaskSpawnFailure
	FaultTimeout
	FaultCorruption
	FaultNetworkError
	FaultDiskFull
	FaultPermissionDenied
	faultTypeCount
)

func (f FaultType) String() string {
	names := [...]string{
		"allocation_failure", "ffi_failure", "task_spawn_failure", "timeout",
		"corruption", "network_error", "disk_full", "permission_denied",
	}
	if int(f) < len(names) {
		return names[f]
	}
	return "unknown"
}

// faultRecord is the per-type injection rate and trigger counter.
type faultRecord struct {
	enabled     bool
	probability float64 // in [0, 1]
	triggered   uint64
}

// lcg is a minimal linear-congruential generator, used instead of
// math/rand so fault decisions are reproducible across runs given the
// same seed (spec.md §4.4.7: deterministic fault injection for test
// replay). Parameters are Knuth's MMIX multiplier and increment.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &lcg{state: seed}
}

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// float64 returns a pseudo-random value in [0, 1).
func (g *lcg) float64() float64 {
	return float64(g.next()>>11) / float64(1<<53)
}

// FaultInjector is the fault-injection subsystem: a table of
// per-FaultType probabilities consulted by ShouldInjectFault on the hot
// path of whichever subsystem wants to simulate failure under test.
type FaultInjector struct {
	mu      sync.Mutex
	enabled bool
	rng     *lcg
	records [faultTypeCount]faultRecord
}

// NewFaultInjector constructs a disabled injector seeded by seed (0
// picks a fixed default seed, for reproducibility).
func NewFaultInjector(seed uint64) *FaultInjector {
	return &FaultInjector{rng: newLCG(seed)}
}

// Enable turns fault injection on or off globally; individual fault
// types still need EnableFault to actually fire.
func (f *FaultInjector) Enable(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

// EnableFault arms faultType to fire with the given probability
// (clamped to [0, 1]).
func (f *FaultInjector) EnableFault(faultType FaultType, probability float64) {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(faultType) < 0 || int(faultType) >= int(faultTypeCount) {
		return
	}
	f.records[faultType].enabled = true
	f.records[faultType].probability = probability
}

// DisableFault disarms faultType.
func (f *FaultInjector) DisableFault(faultType FaultType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(faultType) < 0 || int(faultType) >= int(faultTypeCount) {
		return
	}
	f.records[faultType].enabled = false
}

// ShouldInjectFault rolls the injector's PRNG against faultType's
// armed probability, counting every trigger. It always returns false
// when the injector is globally disabled or faultType was never armed,
// regardless of probability.
func (f *FaultInjector) ShouldInjectFault(faultType FaultType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled || int(faultType) < 0 || int(faultType) >= int(faultTypeCount) {
		return false
	}
	rec := &f.records[faultType]
	if !rec.enabled || rec.probability <= 0 {
		return false
	}
	if f.rng.float64() < rec.probability {
		rec.triggered++
		return true
	}
	return false
}

// TriggeredCount returns how many times faultType has fired.
func (f *FaultInjector) TriggeredCount(faultType FaultType) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(faultType) < 0 || int(faultType) >= int(faultTypeCount) {
		return 0
	}
	return f.records[faultType].triggered
}

// Reset clears every armed fault and trigger count, leaving the
// injector disabled.
func (f *FaultInjector) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = false
	f.records = [faultTypeCount]faultRecord{}
}
