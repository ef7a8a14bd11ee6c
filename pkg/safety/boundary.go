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
	"math"
	"unsafe"
)

// SliceHeader is the (base, length, capacity, element-size) view
// described in spec.md §3. BasePointer is an unsafe.Pointer because the
// runtime bridge's slices describe memory owned by generated code, not
// Go-managed slices.
type SliceHeader struct {
	BasePointer unsafe.Pointer
	Length      uint64
	Capacity    uint64
	ElementSize uint64
}

// maxElementSize is the spec's "2^20" upper bound on ElementSize.
const maxElementSize = 1 << 20

// BoundaryResult is the outcome of a boundary/layout check.
type BoundaryResult struct {
	Valid          bool
	Kind           ViolationKind
	Message        string
	OutOfBounds    bool
	AttemptedIndex uint64
	SliceLength    uint64
}

func valid() BoundaryResult { return BoundaryResult{Valid: true} }

// EnhancedBoundaryCheck runs the full sequential check list from
// spec.md §4.4.1: null pointer, corrupted header (element size or
// length/capacity), out-of-bounds index, and index*elementSize
// overflow, in that order, stopping at the first failure.
func EnhancedBoundaryCheck(s SliceHeader, index uint64) BoundaryResult {
	if s.BasePointer == nil {
		return BoundaryResult{Kind: ViolationBounds, Message: "slice base pointer is null"}
	}
	if s.ElementSize == 0 || s.ElementSize > maxElementSize {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("slice header corrupted: element_size=%d out of range (0, %d]", s.ElementSize, maxElementSize)}
	}
	if s.Length > s.Capacity {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("slice header corrupted: length=%d exceeds capacity=%d", s.Length, s.Capacity)}
	}
	if index >= s.Length {
		return BoundaryResult{
			Kind: ViolationBounds, OutOfBounds: true,
			Message:        fmt.Sprintf("index %d out of bounds for slice of length %d", index, s.Length),
			AttemptedIndex: index, SliceLength: s.Length,
		}
	}
	if overflowsMul(index, s.ElementSize) {
		return BoundaryResult{
			Kind: ViolationBounds, OutOfBounds: true,
			Message:        fmt.Sprintf("index*element_size overflows for index=%d element_size=%d", index, s.ElementSize),
			AttemptedIndex: index, SliceLength: s.Length,
		}
	}
	return valid()
}

// SliceBoundsCheck is the fast-path subset of EnhancedBoundaryCheck:
// null-pointer and out-of-bounds only (spec.md §4.4.1).
func SliceBoundsCheck(s SliceHeader, index uint64) BoundaryResult {
	if s.BasePointer == nil {
		return BoundaryResult{Kind: ViolationBounds, Message: "slice base pointer is null"}
	}
	if index >= s.Length {
		return BoundaryResult{
			Kind: ViolationBounds, OutOfBounds: true,
			Message:        fmt.Sprintf("index %d out of bounds for slice of length %d", index, s.Length),
			AttemptedIndex: index, SliceLength: s.Length,
		}
	}
	return valid()
}

// ValidateSliceHeader is the layout-focused check from spec.md §4.4.1:
// alignment, length<=capacity, capacity within SIZE_MAX/2, and
// element-size range — independent of any particular index.
func ValidateSliceHeader(s SliceHeader) BoundaryResult {
	if s.ElementSize == 0 || s.ElementSize > maxElementSize {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("element_size=%d out of range (0, %d]", s.ElementSize, maxElementSize)}
	}
	if s.Length > s.Capacity {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("length=%d exceeds capacity=%d", s.Length, s.Capacity)}
	}
	if s.Capacity > math.MaxUint64/2 {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("capacity=%d exceeds SIZE_MAX/2", s.Capacity)}
	}
	if s.BasePointer == nil && s.Length != 0 {
		return BoundaryResult{Kind: ViolationBounds, Message: "base pointer is null but length is nonzero"}
	}
	align := s.ElementSize
	if align > wordSize {
		align = wordSize
	}
	if s.BasePointer != nil && align > 0 && uintptr(s.BasePointer)%uintptr(align) != 0 {
		return BoundaryResult{Kind: ViolationBounds, Message: fmt.Sprintf("base pointer not aligned to %d bytes", align)}
	}
	return valid()
}

// wordSize is the machine word size used for the "min(element_size,
// machine_word)" alignment rule in spec.md §3.
const wordSize = uint64(unsafe.Sizeof(uintptr(0)))

// overflowsMul reports whether a*b overflows a uint64.
func overflowsMul(a, b uint64) bool {
	if a == 0 || b == 0 {
		return false
	}
	return a > math.MaxUint64/b
}
