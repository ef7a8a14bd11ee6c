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

package driver

import (
	"context"
	"debug/elf"
	"log/slog"
	"os"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
	"github.com/asthra-lang/asthra-backend/pkg/codegen/elfwriter"
	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
	"github.com/asthra-lang/asthra-backend/pkg/codegen/reloc"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/atomics"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/stats"
	"github.com/asthra-lang/asthra-backend/pkg/safety"
)

// relocSectionSuffix is the suffix of the file the driver writes a
// compiled object's relocation table to. It is a side artifact (object+".reloc"), not
// a spliced-in real ELF section: §9's design notes leave "whether
// apply_relocations belongs in production code" open, and SPEC_FULL.md
// resolves it by keeping the relocation table production-reachable
// through this diagnostic path rather than rewriting llc's object file
// in place.
const relocSectionSuffix = ".reloc"

// Driver sequences C5 (llvmtool.Orchestrator) → C6 (reloc.Manager) → C7
// (elfwriter.Writer) for one compile unit and records every stage's
// elapsed time into a Registry (C2), the way
// pkg/ingestion/local_pipeline.go's Pipeline holds one struct per
// stage and a shared stats sink.
type Driver struct {
	Tools  *llvmtool.Orchestrator
	Relocs *reloc.Manager
	ELF    *elfwriter.Writer
	Stats  *stats.Registry
	Safety *safety.Subsystem
	log    *slog.Logger
}

// New constructs a Driver. logger is threaded the way every other
// component's constructor takes one (nil defaults to slog.Default()).
// relocs and safetySub may be nil; a nil Relocs skips relocation
// annotation and a nil Safety skips violation reporting on relocation
// table failures.
func New(statsReg *stats.Registry, relocs *reloc.Manager, safetySub *safety.Subsystem, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		Tools:  llvmtool.New(),
		Relocs: relocs,
		ELF:    elfwriter.New(),
		Stats:  statsReg,
		Safety: safetySub,
		log:    logger,
	}
}

// UnitResult reports one compile unit's disposition.
type UnitResult struct {
	IRFile     string
	OutputFile string
	RelocFile  string // empty when no relocation annotation was produced
	ElapsedNs  uint64
}

// CompileUnit drives one IR file through optimize → codegen → link (one
// CompilePipeline call) and then object annotation, recording the optimization and code-generation
// sub-timers plus the overall compilation timer into d.Stats
// (spec.md §4.10), and deletes every temporary file it creates on both
// the success and failure paths (spec.md §4.5's "temporary files must
// be removed on both success and failure paths", generalized to the
// driver's own annotation temporaries).
func (d *Driver) CompileUnit(ctx context.Context, irFile, outputFile string, opts CompilerOptions) (UnitResult, *asthraerr.Error) {
	start := atomics.NowNanos()
	result := UnitResult{IRFile: irFile, OutputFile: outputFile}

	optStart := atomics.NowNanos()
	aerr := d.Tools.CompilePipeline(ctx, irFile, outputFile, opts.Format, opts.pipelineOptions(opts.Libs))
	optElapsed := atomics.NowNanos() - optStart
	if d.Stats != nil {
		d.Stats.RecordOptimizationTime(optElapsed)
	}
	if aerr != nil {
		if d.Stats != nil {
			d.Stats.RecordAllocationFailure()
		}
		return result, aerr
	}

	if (opts.Format == llvmtool.FormatObject || opts.Format == llvmtool.FormatExecutable) && d.Relocs != nil && len(d.Relocs.All()) > 0 {
		relocFile, aerr := d.annotateObject(outputFile)
		if aerr != nil {
			return result, aerr
		}
		result.RelocFile = relocFile
	}

	elapsed := atomics.NowNanos() - start
	result.ElapsedNs = elapsed
	if d.Stats != nil {
		d.Stats.RecordCodeGenTime(elapsed - optElapsed)
		d.Stats.UpdateCompilation(elapsed, 1, 0)
	}
	return result, nil
}

// annotateObject validates d.Relocs, then for every distinct target
// section in the table serializes its relocations via
// GenerateSectionData into a correspondingly named ".asthra.reloc.<section>"
// entry in d.ELF (spec.md §4.6/§4.7: the relocation section data is the
// wire layout the ELF writer's section table owns), and writes the
// concatenated bytes to a sidecar file alongside objectFile. A
// validation failure is reported through d.Safety's sink, when present,
// as an annotation violation before being returned.
func (d *Driver) annotateObject(objectFile string) (string, *asthraerr.Error) {
	if verr := d.Relocs.ValidateTable(); verr != nil {
		if d.Safety != nil {
			d.Safety.Sink.Report(safety.ViolationAnnotation, safety.SeverityEnhanced,
				verr.Error(), objectFile, 0, "driver.annotateObject", "", 0)
		}
		return "", verr
	}
	d.Relocs.SortByOffset()

	sections := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, r := range d.Relocs.All() {
		if !seen[r.Section] {
			seen[r.Section] = true
			sections = append(sections, r.Section)
		}
	}

	var combined []byte
	for _, name := range sections {
		idx := d.ELF.AddSection(".asthra.reloc."+name, elf.SHT_PROGBITS, elf.SHF_ALLOC)
		sec, ok := d.ELF.Section(".asthra.reloc." + name)
		if !ok {
			return "", asthraerr.New(asthraerr.KindResource, "driver", "ELF writer lost the section it just added")
		}
		_ = idx
		data := d.Relocs.GenerateSectionData(name)
		sec.Grow(data)
		combined = append(combined, data...)
	}

	relocFile := objectFile + relocSectionSuffix
	if err := os.WriteFile(relocFile, combined, 0o644); err != nil {
		return "", asthraerr.Wrap(asthraerr.KindIO, "driver", "writing relocation section artifact", err)
	}
	return relocFile, nil
}
