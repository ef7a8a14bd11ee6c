// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
)

// runVersion reports whether the LLVM tools are on PATH and, when they
// are, llc's reported version string (spec.md §4.5 "version()").
func runVersion(args []string, globals globalFlags) int {
	orch := llvmtool.New()
	if !orch.ToolsAvailable() {
		fmt.Fprintln(os.Stderr, "asthrac version: llc/opt/clang not found on PATH")
		return 1
	}
	v, aerr := orch.Version(context.Background())
	if aerr != nil {
		fmt.Fprintf(os.Stderr, "asthrac version: %v\n", aerr)
		return 1
	}
	fmt.Printf("asthrac dev (llc %s)\n", v)
	return 0
}
