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

// Package driver sequences the stages of spec.md §4.10: C5 (the LLVM
// tool orchestrator) produces an object or executable, C6 (the
// relocation manager) and C7 (the ELF writer) annotate it, and every
// stage's elapsed time is recorded into C2 (the statistics registry),
// the way pkg/ingestion/local_pipeline.go sequences parse/resolve/write
// stages and reports each one's duration to its own counters.
package driver

import (
	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
)

// OptimizationLevel is CompilerOptions' source-level optimization
// setting (spec.md §3), independent of the llvmtool.OptLevel it maps
// to internally.
type OptimizationLevel int

const (
	OptNone OptimizationLevel = iota
	OptBasic
	OptStandard
	OptAggressive
)

func (l OptimizationLevel) toolLevel() llvmtool.OptLevel {
	switch l {
	case OptNone:
		return llvmtool.O0
	case OptBasic:
		return llvmtool.O1
	case OptStandard:
		return llvmtool.O2
	case OptAggressive:
		return llvmtool.O3
	default:
		return llvmtool.O0
	}
}

// CompilerOptions is the record of spec.md §3: optimization level,
// target architecture, an explicit target triple (overrides the
// architecture-derived one when non-empty), debug-info/verbose flags,
// and the desired output format.
type CompilerOptions struct {
	Optimization OptimizationLevel
	Arch         llvmtool.Arch
	Triple       string
	DebugInfo    bool
	Verbose      bool
	Format       llvmtool.OutputFormat
	CPU          string
	Features     string
	Libs         []string
}

// resolvedTriple returns opts.Triple if set, else the architecture's
// derived triple for the current host (spec.md §4.5 "Target-triple
// derivation").
func (o CompilerOptions) resolvedTriple() string {
	if o.Triple != "" {
		return o.Triple
	}
	return llvmtool.TargetTriple(o.Arch, llvmtool.CurrentHostOS())
}

func (o CompilerOptions) pipelineOptions(libs []string) llvmtool.PipelineOptions {
	triple := o.resolvedTriple()
	level := o.Optimization.toolLevel()
	return llvmtool.PipelineOptions{
		Opt: llvmtool.OptimizeOptions{
			Level:     level,
			DebugInfo: o.DebugInfo,
		},
		Compile: llvmtool.CompileOptions{
			Level:    level,
			Triple:   triple,
			CPU:      o.CPU,
			Features: o.Features,
		},
		Link: llvmtool.LinkOptions{
			Level:  level,
			Triple: triple,
			Libs:   libs,
		},
		SkipOpt: o.Format == llvmtool.FormatIR && o.Optimization == OptNone,
	}
}
