// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
	"github.com/asthra-lang/asthra-backend/pkg/codegen/reloc"
	"github.com/asthra-lang/asthra-backend/pkg/config"
	"github.com/asthra-lang/asthra-backend/pkg/driver"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/stats"
	"github.com/asthra-lang/asthra-backend/pkg/safety"
)

// runCompile drives the C5->C6->C7 pipeline (pkg/driver) over one or
// more IR files, mirroring cmd/cie/index.go's "parse flags, build a
// pipeline, report a progress bar, print a summary" shape.
func runCompile(args []string, globals globalFlags, proj *config.Project) int {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	output := fs.StringP("output", "o", "", "Output file (required with a single input; with multiple inputs each output is named after its input)")
	safetyReport := fs.Bool("safety-report", false, "Print accumulated safety violations after compiling")
	_ = fs.Parse(args)
	inputs := fs.Args()

	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "asthrac compile: at least one input file is required")
		return 1
	}
	if len(inputs) == 1 && *output == "" {
		fmt.Fprintln(os.Stderr, "asthrac compile: -o/--output is required")
		return 1
	}

	opts := proj.CompilerOptions()
	safetyCfg, err := proj.SafetyConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "asthrac compile: %v\n", err)
		return 1
	}

	statsReg := stats.New(slog.Default())
	statsReg.Init()
	defer statsReg.Shutdown()

	relocs := reloc.New()
	safetySub := safety.NewSubsystem(safetyCfg, slog.Default())
	drv := driver.New(statsReg, relocs, safetySub, slog.Default())

	units := make([]driver.Unit, 0, len(inputs))
	if len(inputs) == 1 {
		units = append(units, driver.Unit{IRFile: inputs[0], OutputFile: *output})
	} else {
		for _, in := range inputs {
			units = append(units, driver.Unit{IRFile: in, OutputFile: in + outputSuffix(opts)})
		}
	}

	var progressOut *os.File
	if !globals.Quiet && len(units) > 1 {
		progressOut = os.Stderr
	}
	var results []driver.BatchResult
	ctx := context.Background()
	if progressOut != nil {
		results = drv.CompileBatch(ctx, units, opts, progressOut)
	} else {
		for _, u := range units {
			res, aerr := drv.CompileUnit(ctx, u.IRFile, u.OutputFile, opts)
			results = append(results, driver.BatchResult{Unit: u, Result: res, Err: aerr})
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			printCompileError(globals, r)
			continue
		}
		if !globals.Quiet {
			fmt.Printf("%s -> %s\n", r.Unit.IRFile, r.Result.OutputFile)
		}
	}

	if *safetyReport {
		_, _ = safetySub.DumpReport(os.Stderr, globals.NoColor)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func printCompileError(globals globalFlags, r driver.BatchResult) {
	msg := fmt.Sprintf("%s: %v", r.Unit.IRFile, r.Err)
	if globals.NoColor {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, msg)
}

func outputSuffix(opts driver.CompilerOptions) string {
	switch opts.Format {
	case llvmtool.FormatIR:
		return ".out.ll"
	default:
		return ".out"
	}
}
