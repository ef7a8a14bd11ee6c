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

// Package safety implements the runtime safety subsystem (spec.md
// §4.4): boundary/layout checks, FFI ownership tracking, Result and
// pattern-match verification, constant-time/secure-zero/stack-canary
// checks, fault injection, and a performance monitor, all gated by a
// Config the way pkg/ingestion/config.go gates the ingestion pipeline's
// behavior with a doc-commented struct of named fields and preset
// constructors.
package safety

// Level is the overall safety level (spec.md §4.4 Configuration).
type Level int

const (
	LevelNone Level = iota
	LevelBasic
	LevelStandard
	LevelEnhanced
	LevelParanoid
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelBasic:
		return "basic"
	case LevelStandard:
		return "standard"
	case LevelEnhanced:
		return "enhanced"
	case LevelParanoid:
		return "paranoid"
	default:
		return "unknown"
	}
}

// Config toggles each checker independently. Level records the overall
// level of a preset; no checker reads it, so a caller that sets only
// Level leaves every per-checker field at its zero value.
type Config struct {
	Level Level

	// BoundaryChecks gates Subsystem.CheckBoundary (enhanced_boundary_check).
	// SliceBoundsCheck and ValidateSliceHeader are plain functions it does
	// not gate.
	BoundaryChecks bool

	// FFIAnnotationChecks gates register_ffi_pointer; unregister,
	// verify_ffi_annotation and validate_variadic_call run regardless.
	FFIAnnotationChecks bool

	// ResultTracking gates register_result_tracker / mark_result_handled /
	// check_unhandled_results.
	ResultTracking bool

	// UnhandledResultThresholdNanos is the wall-clock age at which an
	// unhandled Result is reported (spec.md §4.4.3: "5 seconds").
	UnhandledResultThresholdNanos uint64

	// PatternMatchChecks gates verify_match_exhaustiveness.
	PatternMatchChecks bool

	// ConstantTimeChecks gates verify_constant_time_operation.
	ConstantTimeChecks bool

	// ConstantTimeIterations is how many times a candidate operation is
	// timed (spec.md §4.4.4: "N (=10 or 100)").
	ConstantTimeIterations int

	// ConstantTimeVarianceThreshold is the (max-min)/avg ratio at or
	// above which an operation is flagged non-constant-time (spec.md:
	// "ratio >= 10%").
	ConstantTimeVarianceThreshold float64

	// SecureZeroChecks gates validate_secure_zeroing.
	SecureZeroChecks bool

	// StackCanaryChecks is set by the presets; StackCanaryGuard does not
	// read it, so install/check/remove_stack_canary always run.
	StackCanaryChecks bool

	// FaultInjectionEnabled is set by the presets and the project file;
	// FaultInjector does not read it. The injector is switched on with
	// FaultInjector.Enable and armed per type with EnableFault.
	FaultInjectionEnabled bool

	// PerformanceMonitoring gates start/end_performance_measurement.
	PerformanceMonitoring bool
}

// DefaultDebugConfig enables every checker at LevelEnhanced, the
// permissive-but-thorough profile for local development.
func DefaultDebugConfig() Config {
	return Config{
		Level:                         LevelEnhanced,
		BoundaryChecks:                true,
		FFIAnnotationChecks:           true,
		ResultTracking:                true,
		UnhandledResultThresholdNanos: 5e9,
		PatternMatchChecks:            true,
		ConstantTimeChecks:            true,
		ConstantTimeIterations:        10,
		ConstantTimeVarianceThreshold: 0.10,
		SecureZeroChecks:              true,
		StackCanaryChecks:             true,
		FaultInjectionEnabled:         false,
		PerformanceMonitoring:         true,
	}
}

// DefaultReleaseConfig enables only the checks cheap enough to run in
// production: bounds and pattern-match exhaustiveness (the latter is a
// compile-time check with no runtime cost).
func DefaultReleaseConfig() Config {
	cfg := DefaultDebugConfig()
	cfg.Level = LevelBasic
	cfg.FFIAnnotationChecks = false
	cfg.ResultTracking = false
	cfg.ConstantTimeChecks = false
	cfg.SecureZeroChecks = false
	cfg.StackCanaryChecks = false
	cfg.PerformanceMonitoring = false
	return cfg
}

// DefaultTestingConfig enables everything DefaultDebugConfig does, plus
// fault injection, for exercising error paths under test.
func DefaultTestingConfig() Config {
	cfg := DefaultDebugConfig()
	cfg.Level = LevelStandard
	cfg.FaultInjectionEnabled = true
	return cfg
}

// DefaultParanoidConfig enables every checker at the strictest
// threshold, tightening the constant-time variance allowance.
func DefaultParanoidConfig() Config {
	cfg := DefaultDebugConfig()
	cfg.Level = LevelParanoid
	cfg.FaultInjectionEnabled = true
	cfg.ConstantTimeIterations = 100
	cfg.ConstantTimeVarianceThreshold = 0.05
	return cfg
}
