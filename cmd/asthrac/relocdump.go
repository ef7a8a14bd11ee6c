// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/reloc"
)

// runRelocDump prints a ".reloc" sidecar file (written by
// pkg/driver.Driver.annotateObject) in human-readable form, the
// read-side surface SPEC_FULL.md adds for the §9 open question
// "whether apply_relocations belongs in production code".
func runRelocDump(args []string, globals globalFlags) int {
	fs := flag.NewFlagSet("reloc-dump", flag.ExitOnError)
	_ = fs.Parse(args)
	inputs := fs.Args()
	if len(inputs) != 1 {
		fmt.Fprintln(os.Stderr, "asthrac reloc-dump: exactly one <object>.reloc file is required")
		return 1
	}

	data, err := os.ReadFile(inputs[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "asthrac reloc-dump: %v\n", err)
		return 1
	}

	m := reloc.New()
	entries, aerr := m.DecodeSectionData(data)
	if aerr != nil {
		fmt.Fprintf(os.Stderr, "asthrac reloc-dump: %v\n", aerr)
		return 1
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return boolToExit(enc.Encode(entries) == nil)
	}

	for _, e := range entries {
		fmt.Printf("%#08x  %-20s addend=%d\n", e.SectionOffset, e.Type.String(), e.Addend)
	}
	return 0
}

func boolToExit(ok bool) int {
	if ok {
		return 0
	}
	return 1
}
