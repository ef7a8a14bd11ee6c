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

package atomics

import "time"

// epoch is the arbitrary reference point every Timestamp is measured
// from. time.Since(epoch) uses the monotonic reading embedded in both
// time.Time values (neither has been stripped by a wall-clock-only
// operation), so NowNanos is guaranteed non-decreasing within this
// process per spec.md §3/§4.1.
var epoch = time.Now()

// Timestamp is a 64-bit unsigned nanosecond count since epoch.
type Timestamp = uint64

// NowNanos returns the current monotonic Timestamp.
func NowNanos() Timestamp {
	return Timestamp(time.Since(epoch).Nanoseconds())
}

// SentinelMax is the "uninitialized minimum" sentinel used to prime
// min-collection-time style counters (spec.md §3).
const SentinelMax Timestamp = ^Timestamp(0)
