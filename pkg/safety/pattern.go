// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import "fmt"

// MatchCompleteness is the outcome of a pattern-match exhaustiveness
// check (spec.md §4.4.3).
type MatchCompleteness int

const (
	MatchComplete MatchCompleteness = iota
	MatchIncomplete
	MatchUnreachable
	MatchRedundant
)

func (c MatchCompleteness) String() string {
	switch c {
	case MatchComplete:
		return "complete"
	case MatchIncomplete:
		return "incomplete"
	case MatchUnreachable:
		return "unreachable"
	case MatchRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// MatchArm is one arm of a match expression as seen by the
// exhaustiveness checker: a variant tag (for enum/tagged-union
// subjects) and whether it is a wildcard/catch-all arm.
type MatchArm struct {
	Variant    string
	IsWildcard bool
}

// MatchReport is the result of VerifyMatchExhaustiveness.
type MatchReport struct {
	Completeness MatchCompleteness
	Missing      []string
	Redundant    []string
}

// VerifyMatchExhaustiveness checks arms against the full set of
// variants a matched type declares (spec.md §4.4.3):
//   - a wildcard arm after which further non-wildcard arms appear is
//     unreachable (spec's "redundant" case, since those arms can never
//     run);
//   - a variant repeated across non-wildcard arms is itself redundant;
//   - any declared variant with no corresponding arm and no earlier
//     wildcard is reported missing, making the match incomplete.
func VerifyMatchExhaustiveness(variants []string, arms []MatchArm) MatchReport {
	seen := make(map[string]bool, len(arms))
	var redundant []string
	sawWildcard := false
	var afterWildcard []string

	for _, arm := range arms {
		if arm.IsWildcard {
			sawWildcard = true
			continue
		}
		if sawWildcard {
			afterWildcard = append(afterWildcard, arm.Variant)
			continue
		}
		if seen[arm.Variant] {
			redundant = append(redundant, arm.Variant)
			continue
		}
		seen[arm.Variant] = true
	}

	if len(afterWildcard) > 0 {
		return MatchReport{Completeness: MatchUnreachable, Redundant: afterWildcard}
	}
	if len(redundant) > 0 {
		return MatchReport{Completeness: MatchRedundant, Redundant: redundant}
	}
	if sawWildcard {
		return MatchReport{Completeness: MatchComplete}
	}

	var missing []string
	for _, v := range variants {
		if !seen[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return MatchReport{Completeness: MatchIncomplete, Missing: missing}
	}
	return MatchReport{Completeness: MatchComplete}
}

// ReportMatchExhaustiveness runs VerifyMatchExhaustiveness and, when
// the config's PatternMatchChecks is enabled and the report is not
// MatchComplete, records a violation through sink.
func ReportMatchExhaustiveness(sink *Sink, cfg *Config, function string, variants []string, arms []MatchArm) MatchReport {
	report := VerifyMatchExhaustiveness(variants, arms)
	if cfg != nil && !cfg.PatternMatchChecks {
		return report
	}
	switch report.Completeness {
	case MatchIncomplete:
		sink.Report(ViolationExhaustiveness, SeverityStandard,
			fmt.Sprintf("match in %s is missing variants: %v", function, report.Missing), "", 0, function, "", 0)
	case MatchUnreachable:
		sink.Report(ViolationExhaustiveness, SeverityBasic,
			fmt.Sprintf("match in %s has unreachable arms after wildcard: %v", function, report.Redundant), "", 0, function, "", 0)
	case MatchRedundant:
		sink.Report(ViolationExhaustiveness, SeverityBasic,
			fmt.Sprintf("match in %s has redundant arms: %v", function, report.Redundant), "", 0, function, "", 0)
	}
	return report
}
