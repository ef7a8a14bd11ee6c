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
	"sync"
	"unsafe"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
)

// TransferMode is the FFI ownership-transfer semantics of spec.md §3.
// The shape of this tracker — a flat slice plus an address-to-index map
// under a single mutex — is the pure-Go
// descendant of the address/lifetime bookkeeping pkg/cozodb/cozodb.go
// performs around its cgo C.CString/unsafe.Pointer calls: there, every
// C-owned allocation is paired with a deferred C.free; here, every
// tracked FFI pointer is paired with an explicit Unregister.
type TransferMode int

const (
	TransferFull TransferMode = iota
	TransferNone
	TransferBorrowed
)

func (m TransferMode) String() string {
	switch m {
	case TransferFull:
		return "full"
	case TransferNone:
		return "none"
	case TransferBorrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// OwnershipHint is the FFIPointerTracker ownership hint of spec.md §3.
type OwnershipHint int

const (
	OwnershipGC OwnershipHint = iota
	OwnershipC
	OwnershipPinned
)

// FFIPointerEntry is one tracked pointer.
type FFIPointerEntry struct {
	Address        uintptr
	Size           uint64
	Transfer       TransferMode
	Ownership      OwnershipHint
	IsBorrowed     bool
	CreationTime   atomics.Timestamp
	LastAccessTime atomics.Timestamp
	SourceLabel    string
	OwningThread   uint64
	refcount       atomics.Counter
}

// FFITracker is the FFIPointerTracker of spec.md §3/§4.4.2: a flat,
// growable, mutex-guarded table keyed by address.
type FFITracker struct {
	sink *Sink
	cfg  *Config

	mu      sync.Mutex
	entries []*FFIPointerEntry
	byAddr  map[uintptr]int // address -> index into entries, kept in sync with entries
}

// NewFFITracker constructs a tracker reporting through sink under cfg.
func NewFFITracker(sink *Sink, cfg *Config) *FFITracker {
	return &FFITracker{sink: sink, cfg: cfg, byAddr: make(map[uintptr]int)}
}

// RegisterFFIPointer appends a new entry for addr, initializing refcount
// to 1 and both timestamps to now (spec.md §4.4.2).
func (t *FFITracker) RegisterFFIPointer(addr unsafe.Pointer, size uint64, transfer TransferMode, ownership OwnershipHint, borrowed bool, source string, owningThread uint64) {
	if t.cfg != nil && !t.cfg.FFIAnnotationChecks {
		return
	}
	now := atomics.NowNanos()
	entry := &FFIPointerEntry{
		Address: uintptr(addr), Size: size, Transfer: transfer, Ownership: ownership,
		IsBorrowed: borrowed, CreationTime: now, LastAccessTime: now,
		SourceLabel: source, OwningThread: owningThread,
	}
	entry.refcount.Store(1, atomics.Release)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.byAddr[entry.Address] = len(t.entries)
	t.entries = append(t.entries, entry)
}

// UnregisterFFIPointer fetch-subs the refcount for addr; when the prior
// value is <= 1, the entry is removed via a memmove-equivalent shift
// (spec.md §4.4.2). Unregistering an untracked pointer reports a
// violation and returns an error.
func (t *FFITracker) UnregisterFFIPointer(addr unsafe.Pointer) *asthraerr.Error {
	a := uintptr(addr)
	t.mu.Lock()
	idx, ok := t.byAddr[a]
	if !ok {
		t.mu.Unlock()
		t.sink.Report(ViolationOwnership, SeverityStandard, fmt.Sprintf("unregister of untracked FFI pointer %#x", a), "", 0, "UnregisterFFIPointer", "", 0)
		return asthraerr.New(asthraerr.KindNotFound, "ffi", fmt.Sprintf("pointer %#x not registered", a))
	}
	entry := t.entries[idx]
	prior := entry.refcount.FetchSub(1, atomics.AcqRel)
	if prior <= 1 {
		t.removeLocked(idx)
	}
	t.mu.Unlock()
	return nil
}

// removeLocked deletes entries[idx], shifting the tail down by one and
// keeping byAddr in sync (t.mu must be held).
func (t *FFITracker) removeLocked(idx int) {
	removedAddr := t.entries[idx].Address
	copy(t.entries[idx:], t.entries[idx+1:])
	t.entries = t.entries[:len(t.entries)-1]
	delete(t.byAddr, removedAddr)
	for i := idx; i < len(t.entries); i++ {
		t.byAddr[t.entries[i].Address] = i
	}
}

// GetFFIPointerInfo returns a copy of the tracked entry for addr,
// updating its LastAccessTime. spec.md §9 documents the table mutex
// being released before the original C implementation returns a
// reference as a data-race hazard; this implementation takes option
// (a) from that design note and returns a copy, sidestepping the hazard
// entirely rather than keeping the mutex held across the caller's use
// of the result.
func (t *FFITracker) GetFFIPointerInfo(addr unsafe.Pointer) (FFIPointerEntry, bool) {
	a := uintptr(addr)
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byAddr[a]
	if !ok {
		return FFIPointerEntry{}, false
	}
	t.entries[idx].LastAccessTime = atomics.NowNanos()
	return *t.entries[idx], true
}

// Size returns the number of tracked pointers, used by the "register
// then unregister leaves table size unchanged" property test.
func (t *FFITracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// FFIArg is one argument examined by VerifyFFIAnnotation /
// ValidateVariadicCall.
type FFIArg struct {
	Ptr              unsafe.Pointer
	TypeTag          string
	ExpectedTransfer TransferMode
	Borrowed         bool
}

// VerifyFFIAnnotation checks: the function pointer is non-null; each
// arg's nullness is consistent with its declared transfer mode; and no
// argument declares TransferFull while also being borrowed (spec.md
// §4.4.2).
func (t *FFITracker) VerifyFFIAnnotation(fn unsafe.Pointer, args []FFIArg) *asthraerr.Error {
	if fn == nil {
		t.sink.Report(ViolationAnnotation, SeverityStandard, "FFI function pointer is null", "", 0, "VerifyFFIAnnotation", "", 0)
		return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", "function pointer is null")
	}
	for i, a := range args {
		if a.ExpectedTransfer == TransferFull && a.Borrowed {
			t.sink.Report(ViolationTransfer, SeverityStandard, fmt.Sprintf("arg %d: transfer_full on a borrowed pointer", i), "", 0, "VerifyFFIAnnotation", "", 0)
			return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", fmt.Sprintf("arg %d: transfer_full on borrowed pointer", i))
		}
		if a.ExpectedTransfer == TransferNone && a.Ptr == nil {
			t.sink.Report(ViolationAnnotation, SeverityBasic, fmt.Sprintf("arg %d: transfer_none with null pointer", i), "", 0, "VerifyFFIAnnotation", "", 0)
			return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", fmt.Sprintf("arg %d: transfer_none requires non-null pointer", i))
		}
	}
	return nil
}

// ValidateVariadicCall checks arity and pairwise type-tag equality
// against expectedTypes, and that pointer-typed values are non-null
// (spec.md §4.4.2).
func (t *FFITracker) ValidateVariadicCall(args []FFIArg, expectedTypes []string) *asthraerr.Error {
	if len(args) != len(expectedTypes) {
		t.sink.Report(ViolationTypeSafety, SeverityStandard, fmt.Sprintf("variadic arity mismatch: got %d args, expected %d", len(args), len(expectedTypes)), "", 0, "ValidateVariadicCall", "", 0)
		return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", "variadic arity mismatch")
	}
	for i, a := range args {
		if a.TypeTag != expectedTypes[i] {
			t.sink.Report(ViolationTypeSafety, SeverityStandard, fmt.Sprintf("arg %d: type %q, expected %q", i, a.TypeTag, expectedTypes[i]), "", 0, "ValidateVariadicCall", "", 0)
			return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", fmt.Sprintf("arg %d type mismatch", i))
		}
		if isPointerType(a.TypeTag) && a.Ptr == nil {
			t.sink.Report(ViolationTypeSafety, SeverityStandard, fmt.Sprintf("arg %d: null pointer for pointer-typed argument", i), "", 0, "ValidateVariadicCall", "", 0)
			return asthraerr.New(asthraerr.KindSafetyViolation, "ffi", fmt.Sprintf("arg %d: null pointer-typed value", i))
		}
	}
	return nil
}

func isPointerType(tag string) bool {
	return len(tag) > 0 && tag[0] == '*'
}
