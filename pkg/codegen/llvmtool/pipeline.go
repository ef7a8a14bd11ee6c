// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llvmtool

import (
	"context"
	"fmt"
	"os"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
)

// OptLevel is the -O0..-O3 optimization level shared by opt and llc
// invocations.
type OptLevel int

const (
	O0 OptLevel = iota
	O1
	O2
	O3
)

func (l OptLevel) flag() string {
	return fmt.Sprintf("-O%d", int(l))
}

// OptimizeOptions configures Orchestrator.Optimize.
type OptimizeOptions struct {
	Level        OptLevel
	DebugInfo    bool
	PassPipeline string // empty means use Level's default pipeline
	EmitText     bool   // -S
}

// Optimize spawns `opt` over input, writing output per spec.md §4.5 /
// §6's command-line contract.
func (o *Orchestrator) Optimize(ctx context.Context, input, output string, opts OptimizeOptions) (ToolResult, *asthraerr.Error) {
	args := []string{input, "-o", output, opts.Level.flag()}
	if opts.DebugInfo {
		args = append(args, "-debugify")
	}
	if opts.PassPipeline != "" {
		args = append(args, "-passes", opts.PassPipeline)
	}
	if opts.EmitText {
		args = append(args, "-S")
	}
	return o.run(ctx, "opt", args, true)
}

// RunPasses is Optimize with forced text-IR emission and an explicit
// pipeline (spec.md §4.5).
func (o *Orchestrator) RunPasses(ctx context.Context, input, passes, output string) (ToolResult, *asthraerr.Error) {
	return o.Optimize(ctx, input, output, OptimizeOptions{PassPipeline: passes, EmitText: true})
}

// FileType selects llc's -filetype flag.
type FileType int

const (
	FileTypeAsm FileType = iota
	FileTypeObj
)

func (f FileType) flag() string {
	if f == FileTypeObj {
		return "obj"
	}
	return "asm"
}

// CompileOptions configures Orchestrator.Compile.
type CompileOptions struct {
	Level     OptLevel
	OutputFmt FileType
	Triple    string // empty omits -mtriple
	CPU       string // empty omits -mcpu
	Features  string // empty omits -mattr
}

// Compile spawns `llc` over input, producing assembly or an object file
// per opts (spec.md §4.5 / §6).
func (o *Orchestrator) Compile(ctx context.Context, input, output string, opts CompileOptions) (ToolResult, *asthraerr.Error) {
	args := []string{input, "-o", output, opts.Level.flag(), "-filetype=" + opts.OutputFmt.flag()}
	if opts.Triple != "" {
		args = append(args, "-mtriple", opts.Triple)
	}
	if opts.CPU != "" {
		args = append(args, "-mcpu", opts.CPU)
	}
	if opts.Features != "" {
		args = append(args, "-mattr", opts.Features)
	}
	return o.run(ctx, "llc", args, true)
}

// LinkOptions configures Orchestrator.Link.
type LinkOptions struct {
	Level  OptLevel
	Triple string
	Libs   []string
}

// Link spawns `clang` over objects, producing an executable (spec.md
// §4.5 / §6).
func (o *Orchestrator) Link(ctx context.Context, objects []string, output string, opts LinkOptions) (ToolResult, *asthraerr.Error) {
	args := append([]string{}, objects...)
	args = append(args, "-o", output, opts.Level.flag())
	if opts.Triple != "" {
		args = append(args, "-target", opts.Triple)
	}
	for _, lib := range opts.Libs {
		args = append(args, "-l"+lib)
	}
	return o.run(ctx, "clang", args, true)
}

// PipelineOptions configures Orchestrator.CompilePipeline.
type PipelineOptions struct {
	Opt     OptimizeOptions
	Compile CompileOptions
	Link    LinkOptions
	SkipOpt bool // true when opt=none and format=IR: a straight copy
}

// CompilePipeline is the glue routine of spec.md §4.5: it optimizes
// irFile into a temporary bitcode file, then depending on format either
// renames (IR), compiles (asm/obj), or compiles-then-links (exe). The
// temporary file is always removed, on both the success and failure
// paths.
func (o *Orchestrator) CompilePipeline(ctx context.Context, irFile, outputFile string, format OutputFormat, opts PipelineOptions) *asthraerr.Error {
	if format == FormatIR && opts.SkipOpt {
		data, err := os.ReadFile(irFile)
		if err != nil {
			return asthraerr.Wrap(asthraerr.KindIO, "llvmtool", "reading IR input for copy", err)
		}
		if err := os.WriteFile(outputFile, data, 0o644); err != nil {
			return asthraerr.Wrap(asthraerr.KindIO, "llvmtool", "writing IR output", err)
		}
		return nil
	}

	bcFile := OutputFilename(irFile, FormatBitcode)
	result, aerr := o.Optimize(ctx, irFile, bcFile, opts.Opt)
	defer os.Remove(bcFile)
	if aerr != nil {
		return aerr
	}
	if !result.Success {
		return asthraerr.New(asthraerr.KindIO, "llvmtool", "opt stage of compile_pipeline failed")
	}

	switch format {
	case FormatIR, FormatBitcode:
		if err := os.Rename(bcFile, outputFile); err != nil {
			return asthraerr.Wrap(asthraerr.KindIO, "llvmtool", "renaming optimized bitcode to output", err)
		}
		return nil
	case FormatAssembly, FormatObject:
		fileType := FileTypeAsm
		if format == FormatObject {
			fileType = FileTypeObj
		}
		compileOpts := opts.Compile
		compileOpts.OutputFmt = fileType
		result, aerr := o.Compile(ctx, bcFile, outputFile, compileOpts)
		if aerr != nil {
			return aerr
		}
		if !result.Success {
			return asthraerr.New(asthraerr.KindIO, "llvmtool", "llc stage of compile_pipeline failed")
		}
		return nil
	case FormatExecutable:
		objFile := OutputFilename(irFile, FormatObject)
		compileOpts := opts.Compile
		compileOpts.OutputFmt = FileTypeObj
		result, aerr := o.Compile(ctx, bcFile, objFile, compileOpts)
		if aerr != nil {
			os.Remove(objFile)
			return aerr
		}
		if !result.Success {
			os.Remove(objFile)
			return asthraerr.New(asthraerr.KindIO, "llvmtool", "llc stage of compile_pipeline failed")
		}
		linkResult, aerr := o.Link(ctx, []string{objFile}, outputFile, opts.Link)
		os.Remove(objFile)
		if aerr != nil {
			return aerr
		}
		if !linkResult.Success {
			return asthraerr.New(asthraerr.KindIO, "llvmtool", "clang link stage of compile_pipeline failed")
		}
		return nil
	default:
		return asthraerr.New(asthraerr.KindConfiguration, "llvmtool", "unknown output format")
	}
}
