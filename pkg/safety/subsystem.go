// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import (
	"io"
	"log/slog"
)

// Subsystem wires Config and Sink together with every checker family
// into the single handle the runtime bridge and driver pipeline hold
// (spec.md §4.4: "the safety subsystem as a whole").
type Subsystem struct {
	Config Config
	Sink   *Sink

	FFI     *FFITracker
	Result  *ResultTracker
	Canary  *StackCanaryGuard
	Fault   *FaultInjector
	Monitor *Monitor
}

// NewSubsystem constructs a Subsystem from cfg, logging violations
// through logger (nil defaults to slog.Default()).
func NewSubsystem(cfg Config, logger *slog.Logger) *Subsystem {
	sink := NewSink(logger)
	return &Subsystem{
		Config:  cfg,
		Sink:    sink,
		FFI:     NewFFITracker(sink, &cfg),
		Result:  NewResultTracker(sink, &cfg),
		Canary:  NewStackCanaryGuard(),
		Fault:   NewFaultInjector(0),
		Monitor: NewMonitor(&cfg),
	}
}

// CheckBoundary runs EnhancedBoundaryCheck when s.Config.BoundaryChecks
// is enabled, reporting through the subsystem's sink on failure, and
// returns whether the access is safe.
func (s *Subsystem) CheckBoundary(function string, header SliceHeader, index uint64) bool {
	if !s.Config.BoundaryChecks {
		return true
	}
	result := EnhancedBoundaryCheck(header, index)
	if result.Valid {
		return true
	}
	severity := SeverityStandard
	if result.OutOfBounds {
		severity = SeverityEnhanced
	}
	s.Sink.Report(result.Kind, severity, result.Message, "", 0, function, "", 0)
	return false
}

// VerifyExhaustiveness delegates to ReportMatchExhaustiveness using
// this subsystem's config and sink.
func (s *Subsystem) VerifyExhaustiveness(function string, variants []string, arms []MatchArm) MatchReport {
	return ReportMatchExhaustiveness(s.Sink, &s.Config, function, variants, arms)
}

// VerifyConstantTime delegates to the package-level
// VerifyConstantTimeOperation using this subsystem's config and sink.
func (s *Subsystem) VerifyConstantTime(function string, op func()) ConstantTimeReport {
	return VerifyConstantTimeOperation(s.Sink, &s.Config, function, op)
}

// ValidateSecureZero delegates to the package-level
// ValidateSecureZeroing using this subsystem's config and sink.
func (s *Subsystem) ValidateSecureZero(function string, buf []byte) bool {
	return ValidateSecureZeroing(s.Sink, &s.Config, function, buf)
}

// DumpReport writes the subsystem's accumulated violations as a
// colorized text report to w (used by `asthrac compile --safety-report`).
func (s *Subsystem) DumpReport(w io.Writer, noColor bool) (int, error) {
	return io.WriteString(w, s.Sink.RenderText(noColor))
}
