// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
)

// runPasses runs RunPasses directly, per SPEC_FULL.md's OPEN QUESTION
// DECISIONS #3: "run_passes relies entirely on the caller-supplied pass
// pipeline string" rather than deriving flags from CompilerOptions.
func runPasses(args []string, globals globalFlags) int {
	fs := flag.NewFlagSet("passes", flag.ExitOnError)
	output := fs.StringP("output", "o", "", "Output file (required)")
	passes := fs.String("passes", "", "Explicit -passes pipeline string (required)")
	_ = fs.Parse(args)
	inputs := fs.Args()

	if len(inputs) != 1 {
		fmt.Fprintln(os.Stderr, "asthrac passes: exactly one input file is required")
		return 1
	}
	if *output == "" || *passes == "" {
		fmt.Fprintln(os.Stderr, "asthrac passes: --output and --passes are required")
		return 1
	}

	orch := llvmtool.New()
	result, aerr := orch.RunPasses(context.Background(), inputs[0], *passes, *output)
	if aerr != nil {
		fmt.Fprintf(os.Stderr, "asthrac passes: %v\n", aerr)
		return 1
	}
	if !result.Success {
		os.Stderr.Write(result.Stderr)
		return result.ExitCode
	}
	if !globals.Quiet {
		fmt.Printf("%s -> %s (%dms)\n", inputs[0], *output, result.ElapsedMs)
	}
	return 0
}
