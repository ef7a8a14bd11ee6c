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

package stats

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts Registry to prometheus.Collector, so the counters in
// spec.md §4.2 are scrapeable without maintaining a second counter set
// (SPEC_FULL.md DOMAIN STACK: "Prometheus metrics export"). It is a thin
// view: every Collect call re-reads the same Snapshot used by
// ExportJSON.
type Collector struct {
	registry *Registry
}

// NewCollector wraps registry for Prometheus registration.
func NewCollector(registry *Registry) *Collector {
	return &Collector{registry: registry}
}

var _ prometheus.Collector = (*Collector)(nil)

var descs = struct {
	memory      map[string]*prometheus.Desc
	gc          map[string]*prometheus.Desc
	performance map[string]*prometheus.Desc
	concurrency map[string]*prometheus.Desc
}{
	memory: map[string]*prometheus.Desc{
		"bytes_allocated":      prometheus.NewDesc("asthra_memory_bytes_allocated", "Total bytes allocated", nil, nil),
		"bytes_deallocated":    prometheus.NewDesc("asthra_memory_bytes_deallocated", "Total bytes deallocated", nil, nil),
		"current_memory_usage": prometheus.NewDesc("asthra_memory_current_usage_bytes", "Current memory usage", nil, nil),
		"peak_memory_usage":    prometheus.NewDesc("asthra_memory_peak_usage_bytes", "Peak memory usage", nil, nil),
		"allocation_failures":  prometheus.NewDesc("asthra_memory_allocation_failures_total", "Allocation failures", nil, nil),
	},
	gc: map[string]*prometheus.Desc{
		"collection_count": prometheus.NewDesc("asthra_gc_collections_total", "GC collections run", nil, nil),
		"min_time_ns":      prometheus.NewDesc("asthra_gc_min_pause_ns", "Minimum GC pause", nil, nil),
		"max_time_ns":      prometheus.NewDesc("asthra_gc_max_pause_ns", "Maximum GC pause", nil, nil),
	},
	performance: map[string]*prometheus.Desc{
		"compilation_count":         prometheus.NewDesc("asthra_compiler_compilations_total", "Compilations performed", nil, nil),
		"compilation_time_ns":       prometheus.NewDesc("asthra_compiler_compilation_time_ns_total", "Cumulative end-to-end compilation time", nil, nil),
		"semantic_analysis_time_ns": prometheus.NewDesc("asthra_compiler_semantic_analysis_time_ns_total", "Cumulative semantic-analysis stage time", nil, nil),
		"code_generation_time_ns":   prometheus.NewDesc("asthra_compiler_code_generation_time_ns_total", "Cumulative code-generation stage time", nil, nil),
		"optimization_time_ns":      prometheus.NewDesc("asthra_compiler_optimization_time_ns_total", "Cumulative optimization stage time", nil, nil),
		"files_compiled":            prometheus.NewDesc("asthra_compiler_files_compiled_total", "Source files compiled", nil, nil),
		"lines_compiled":            prometheus.NewDesc("asthra_compiler_lines_compiled_total", "Source lines compiled", nil, nil),
	},
	concurrency: map[string]*prometheus.Desc{
		"threads_created": prometheus.NewDesc("asthra_concurrency_threads_created_total", "Threads created", nil, nil),
		"tasks_spawned":   prometheus.NewDesc("asthra_concurrency_tasks_spawned_total", "Tasks spawned", nil, nil),
		"tasks_completed": prometheus.NewDesc("asthra_concurrency_tasks_completed_total", "Tasks completed", nil, nil),
		"tasks_failed":    prometheus.NewDesc("asthra_concurrency_tasks_failed_total", "Tasks failed", nil, nil),
	},
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descs.memory {
		ch <- d
	}
	for _, d := range descs.gc {
		ch <- d
	}
	for _, d := range descs.performance {
		ch <- d
	}
	for _, d := range descs.concurrency {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.registry.Snapshot()
	emit := func(descMap map[string]*prometheus.Desc, values map[string]uint64, valueType prometheus.ValueType) {
		for key, desc := range descMap {
			ch <- prometheus.MustNewConstMetric(desc, valueType, float64(values[key]))
		}
	}
	emit(descs.memory, snap.Memory, prometheus.GaugeValue)
	emit(descs.gc, snap.GC, prometheus.CounterValue)
	emit(descs.performance, snap.Performance, prometheus.CounterValue)
	emit(descs.concurrency, snap.Concurrency, prometheus.CounterValue)
}
