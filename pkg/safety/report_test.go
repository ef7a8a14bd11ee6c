// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import "testing"

func TestSink_ReportAccumulatesAndCounts(t *testing.T) {
	sink := NewSink(nil)
	sink.Report(ViolationBounds, SeverityBasic, "first", "f.s", 1, "fn", "", 0)
	sink.Report(ViolationOwnership, SeverityCritical, "second", "f.s", 2, "fn", "", 0)
	if sink.Count() != 2 {
		t.Fatalf("count = %d, want 2", sink.Count())
	}
	all := sink.All()
	if len(all) != 2 || all[0].Message != "first" || all[1].Message != "second" {
		t.Fatalf("all = %+v", all)
	}
}

func TestSink_ResetClearsViolationsNotCount(t *testing.T) {
	sink := NewSink(nil)
	sink.Report(ViolationBounds, SeverityBasic, "x", "", 0, "fn", "", 0)
	sink.Reset()
	if len(sink.All()) != 0 {
		t.Fatal("expected violations cleared after Reset")
	}
	if sink.Count() != 1 {
		t.Fatalf("lifetime count = %d, want 1 preserved across Reset", sink.Count())
	}
}

func TestSink_RenderTextIncludesMessageAndLocation(t *testing.T) {
	sink := NewSink(nil)
	sink.Report(ViolationBounds, SeverityBasic, "oops", "main.asthra", 10, "doThing", "", 0)
	text := sink.RenderText(true)
	if text == "" {
		t.Fatal("expected non-empty rendered text")
	}
}

func TestViolationKind_StringCoversAllValues(t *testing.T) {
	for k := ViolationBounds; k <= ViolationSecureZero; k++ {
		if k.String() == "unknown" {
			t.Fatalf("kind %d stringified to unknown", k)
		}
	}
}
