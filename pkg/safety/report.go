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

package safety

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fatih/color"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// ViolationKind enumerates the taxonomy in spec.md §7's SafetyViolation
// family.
type ViolationKind int

const (
	ViolationBounds ViolationKind = iota
	ViolationOwnership
	ViolationTransfer
	ViolationAnnotation
	ViolationTypeSafety
	ViolationExhaustiveness
	ViolationConstantTime
	ViolationStackCanary
	ViolationUnhandledResult
	ViolationSecureZero
)

func (k ViolationKind) String() string {
	names := [...]string{
		"bounds", "ownership", "transfer", "annotation", "type_safety",
		"exhaustiveness", "constant_time", "stack_canary", "unhandled_result", "secure_zero",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Severity orders violations for the "log if severity >= standard"
// contract of spec.md §4.4.5.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityBasic
	SeverityStandard
	SeverityEnhanced
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityBasic:
		return "basic"
	case SeverityStandard:
		return "standard"
	case SeverityEnhanced:
		return "enhanced"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// color returns the fatih/color attribute used when rendering this
// severity in a terminal report (SPEC_FULL.md supplement: "safety-report
// color severity", mirrored from pkg/tools/status.go's report coloring).
func (s Severity) color() *color.Color {
	switch {
	case s >= SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case s >= SeverityEnhanced:
		return color.New(color.FgRed)
	case s >= SeverityStandard:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// Violation is a single reported safety-subsystem finding.
type Violation struct {
	Kind      ViolationKind
	Severity  Severity
	Message   string
	File      string
	Line      int
	Function  string
	Context   string
	Size      uint64
	Timestamp atomics.Timestamp
}

// Sink is the common reporting surface for every safety sub-module
// (spec.md §4.4.5: "report_violation ... is the common sink"). It does
// not unwind — it records and, for severities >= standard, logs.
type Sink struct {
	logger *slog.Logger

	mu         sync.Mutex
	violations []Violation
	count      atomics.Counter
}

// NewSink constructs a Sink bound to logger (nil defaults to
// slog.Default()).
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Report records a violation and, for severity >= SeverityStandard,
// logs it at Warn or Error level.
func (s *Sink) Report(kind ViolationKind, severity Severity, message, file string, line int, function, context string, size uint64) Violation {
	v := Violation{
		Kind: kind, Severity: severity, Message: message,
		File: file, Line: line, Function: function, Context: context, Size: size,
		Timestamp: atomics.NowNanos(),
	}
	s.mu.Lock()
	s.violations = append(s.violations, v)
	s.mu.Unlock()
	s.count.FetchAdd(1, atomics.Relaxed)

	if severity >= SeverityStandard {
		attrs := []any{
			slog.String("kind", kind.String()),
			slog.String("severity", severity.String()),
			slog.String("file", file),
			slog.Int("line", line),
			slog.String("function", function),
		}
		if severity >= SeverityEnhanced {
			s.logger.Error(message, attrs...)
		} else {
			s.logger.Warn(message, attrs...)
		}
	}
	return v
}

// All returns a copy of every violation recorded so far.
func (s *Sink) All() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Violation, len(s.violations))
	copy(out, s.violations)
	return out
}

// Count returns the number of violations recorded.
func (s *Sink) Count() uint64 { return s.count.Load(atomics.Acquire) }

// Reset clears recorded violations (but not the lifetime count, which
// callers can read from Count before resetting if they need it).
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = nil
}

// RenderText writes a colorized one-line-per-violation report, used by
// the CLI's `asthrac compile` diagnostics output.
func (s *Sink) RenderText(noColor bool) string {
	out := ""
	for _, v := range s.All() {
		line := fmt.Sprintf("[%s] %s (%s:%d in %s)\n", v.Severity, v.Message, v.File, v.Line, v.Function)
		if noColor {
			out += line
		} else {
			out += v.Severity.color().Sprint(line)
		}
	}
	return out
}
