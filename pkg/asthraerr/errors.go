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

// Package asthraerr holds the typed error taxonomy shared by every
// component of the compiler backend and runtime bridge. Each Kind wraps
// a plain error the way pkg/tools/git.go wraps exec errors, so callers
// can fmt.Errorf("...: %w", err) through a layer without losing the
// original cause while still being able to errors.As a specific Kind.
package asthraerr

import "fmt"

// Kind classifies an error per spec.md §7.
type Kind int

const (
	// KindConfiguration covers invalid safety levels and out-of-range
	// fault-injection probabilities.
	KindConfiguration Kind = iota
	// KindResource covers allocation, mutex, pipe, and process-spawn
	// failures.
	KindResource
	// KindIO covers missing tools, non-zero child exits, signal
	// termination, and file copy/rename/unlink failures.
	KindIO
	// KindSafetyViolation covers bounds/ownership/transfer/annotation/
	// exhaustiveness/constant-time/canary/result violations.
	KindSafetyViolation
	// KindNotFound covers missing relocations, result IDs, and FFI
	// pointers.
	KindNotFound
	// KindOverflow covers arithmetic overflow in size computations.
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResource:
		return "resource"
	case KindIO:
		return "io"
	case KindSafetyViolation:
		return "safety_violation"
	case KindNotFound:
		return "not_found"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Error is the taxonomy's concrete error type. Component is the
// originating subsystem (e.g. "llvmtool", "reloc", "ffi") for log
// correlation; it is not part of error identity. IsFatal marks the
// fatal subset called out in spec.md §7 (failed mutex/bridge init,
// checks requested against an uninitialized safety subsystem).
type Error struct {
	Kind      Kind
	Component string
	Msg       string
	Err       error
	IsFatal   bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, asthraerr.Sentinel(asthraerr.KindNotFound))
// style checks by comparing Kind against a bare Kind value wrapped in an
// *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, component, msg string) *Error {
	return &Error{Kind: kind, Component: component, Msg: msg}
}

// Wrap constructs an *Error around an existing cause.
func Wrap(kind Kind, component, msg string, err error) *Error {
	return &Error{Kind: kind, Component: component, Msg: msg, Err: err}
}

// Sentinel returns a bare *Error of the given Kind, suitable only for
// errors.Is comparisons (its Msg/Component are empty).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Fatal reports whether this error is fatal to the current compilation
// unit per spec.md §7 ("a failed mutex init, a failed bridge init, or an
// uninitialized safety subsystem ... are fatal").
func (e *Error) Fatal() bool { return e.IsFatal }

// WrapFatal is Wrap with IsFatal set, used by bridge/mutex-init call
// sites that must distinguish a fatal resource failure from a merely
// recoverable one of the same Kind.
func WrapFatal(kind Kind, component, msg string, err error) *Error {
	return &Error{Kind: kind, Component: component, Msg: msg, Err: err, IsFatal: true}
}
