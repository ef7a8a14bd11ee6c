// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import "testing"

func TestVerifyMatchExhaustiveness_Complete(t *testing.T) {
	variants := []string{"Some", "None"}
	arms := []MatchArm{{Variant: "Some"}, {Variant: "None"}}
	report := VerifyMatchExhaustiveness(variants, arms)
	if report.Completeness != MatchComplete {
		t.Fatalf("completeness = %v, want complete", report.Completeness)
	}
}

func TestVerifyMatchExhaustiveness_MissingVariant(t *testing.T) {
	variants := []string{"Ok", "Err", "Pending"}
	arms := []MatchArm{{Variant: "Ok"}, {Variant: "Err"}}
	report := VerifyMatchExhaustiveness(variants, arms)
	if report.Completeness != MatchIncomplete {
		t.Fatalf("completeness = %v, want incomplete", report.Completeness)
	}
	if len(report.Missing) != 1 || report.Missing[0] != "Pending" {
		t.Fatalf("missing = %v, want [Pending]", report.Missing)
	}
}

func TestVerifyMatchExhaustiveness_WildcardCoversRest(t *testing.T) {
	variants := []string{"A", "B", "C"}
	arms := []MatchArm{{Variant: "A"}, {IsWildcard: true}}
	report := VerifyMatchExhaustiveness(variants, arms)
	if report.Completeness != MatchComplete {
		t.Fatalf("completeness = %v, want complete", report.Completeness)
	}
}

func TestVerifyMatchExhaustiveness_ArmAfterWildcardIsUnreachable(t *testing.T) {
	variants := []string{"A", "B"}
	arms := []MatchArm{{IsWildcard: true}, {Variant: "B"}}
	report := VerifyMatchExhaustiveness(variants, arms)
	if report.Completeness != MatchUnreachable {
		t.Fatalf("completeness = %v, want unreachable", report.Completeness)
	}
}

func TestVerifyMatchExhaustiveness_RepeatedVariantIsRedundant(t *testing.T) {
	variants := []string{"A", "B"}
	arms := []MatchArm{{Variant: "A"}, {Variant: "A"}, {Variant: "B"}}
	report := VerifyMatchExhaustiveness(variants, arms)
	if report.Completeness != MatchRedundant {
		t.Fatalf("completeness = %v, want redundant", report.Completeness)
	}
}

func TestReportMatchExhaustiveness_RecordsViolationWhenIncomplete(t *testing.T) {
	sink := NewSink(nil)
	cfg := &Config{PatternMatchChecks: true}
	ReportMatchExhaustiveness(sink, cfg, "myFunc", []string{"A", "B"}, []MatchArm{{Variant: "A"}})
	if sink.Count() != 1 {
		t.Fatalf("violation count = %d, want 1", sink.Count())
	}
}

func TestReportMatchExhaustiveness_DisabledSkipsReporting(t *testing.T) {
	sink := NewSink(nil)
	cfg := &Config{PatternMatchChecks: false}
	ReportMatchExhaustiveness(sink, cfg, "myFunc", []string{"A", "B"}, []MatchArm{{Variant: "A"}})
	if sink.Count() != 0 {
		t.Fatalf("violation count = %d, want 0 when disabled", sink.Count())
	}
}
