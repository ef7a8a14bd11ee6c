// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package safety

import (
	"fmt"
	"sync"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// ResultEntry tracks one Result<T,E> value from creation until it is
// either marked handled or flagged unhandled by CheckUnhandledResults
// (spec.md §4.4.3).
type ResultEntry struct {
	ID           uint64
	CreatedAt    atomics.Timestamp
	Handled      bool
	IsErr        bool
	Function     string
	File         string
	Line         int
	FlaggedStale bool
}

// ResultTracker is the register_result_tracker / mark_result_handled /
// check_unhandled_results family of spec.md §4.4.3: every live Result
// is kept in a map keyed by an ever-incrementing ID, and a sweep
// compares CreatedAt against the configured threshold to report
// results nobody ever inspected.
type ResultTracker struct {
	sink *Sink
	cfg  *Config

	mu      sync.Mutex
	nextID  atomics.Counter
	entries map[uint64]*ResultEntry
}

// NewResultTracker constructs a ResultTracker reporting through sink
// under cfg.
func NewResultTracker(sink *Sink, cfg *Config) *ResultTracker {
	return &ResultTracker{sink: sink, cfg: cfg, entries: make(map[uint64]*ResultEntry)}
}

// RegisterResult allocates an ID for a newly-created Result value and
// records its origin for later reporting.
func (t *ResultTracker) RegisterResult(isErr bool, function, file string, line int) uint64 {
	if t.cfg != nil && !t.cfg.ResultTracking {
		return 0
	}
	id := t.nextID.FetchAdd(1, atomics.Relaxed) + 1
	entry := &ResultEntry{
		ID: id, CreatedAt: atomics.NowNanos(), IsErr: isErr,
		Function: function, File: file, Line: line,
	}
	t.mu.Lock()
	t.entries[id] = entry
	t.mu.Unlock()
	return id
}

// MarkResultHandled removes id from the live set; a Result consumed by
// match, ?, or an explicit .unwrap() call is "handled" and no longer a
// candidate for the unhandled-result sweep. Marking an unknown id is a
// no-op: the Result may have come from a build with ResultTracking off.
func (t *ResultTracker) MarkResultHandled(id uint64) {
	if id == 0 {
		return
	}
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// CheckUnhandledResults sweeps the live set and reports (but does not
// remove) every entry older than the configured threshold that has not
// already been flagged, so repeated sweeps do not re-report the same
// entry (spec.md §4.4.3: "5 seconds").
func (t *ResultTracker) CheckUnhandledResults() []Violation {
	if t.cfg != nil && !t.cfg.ResultTracking {
		return nil
	}
	threshold := t.cfg.UnhandledResultThresholdNanos
	now := atomics.NowNanos()

	t.mu.Lock()
	stale := make([]*ResultEntry, 0)
	for _, e := range t.entries {
		if e.FlaggedStale {
			continue
		}
		if now-e.CreatedAt >= threshold {
			e.FlaggedStale = true
			stale = append(stale, e)
		}
	}
	t.mu.Unlock()

	violations := make([]Violation, 0, len(stale))
	for _, e := range stale {
		v := t.sink.Report(ViolationUnhandledResult, SeverityStandard,
			fmt.Sprintf("Result #%d (is_err=%v) never handled, created in %s", e.ID, e.IsErr, e.Function),
			e.File, e.Line, e.Function, "", 0)
		violations = append(violations, v)
	}
	return violations
}

// Live returns the number of Result values currently tracked as
// unhandled.
func (t *ResultTracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
