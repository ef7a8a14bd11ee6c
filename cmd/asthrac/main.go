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

// Package main implements the asthrac CLI: a thin driver over the
// compiler backend's C5-C7 pipeline (pkg/driver), the statistics
// registry (pkg/runtime/stats) and the safety subsystem (pkg/safety).
//
// Usage:
//
//	asthrac compile <input.ll> -o <output>   Run the optimize/codegen/link pipeline
//	asthrac stats [--json] [--prometheus]    Print or serve the statistics registry
//	asthrac passes <input.ll> -o <out> --passes <pipeline>   Run an explicit LLVM pass pipeline
//	asthrac reloc-dump <object.reloc>        Print a relocation-section sidecar file
//	asthrac watch <input.ll> -o <output>     Recompile on file change
//	asthrac version                          Print orchestrator/tool version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/config"
)

// globalFlags are the flags accepted before the subcommand name,
// mirroring cmd/cie/main.go's GlobalFlags shape.
type globalFlags struct {
	JSON       bool
	NoColor    bool
	Verbose    int
	Quiet      bool
	ConfigPath string
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .asthra/project.yaml (default: ./.asthra/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `asthrac - Asthra compiler backend driver

Sequences the LLVM tool orchestrator, relocation manager, and ELF
writer over one or more IR files, and exposes the runtime statistics
registry and safety-violation reports.

Usage:
  asthrac <command> [options]

Commands:
  compile      Run the optimize/codegen/link pipeline on one or more IR files
  passes       Run an explicit -passes pipeline through opt
  stats        Print the statistics registry (text or --json)
  reloc-dump   Print a relocation-section sidecar file in human-readable form
  watch        Recompile an IR file whenever it changes on disk
  version      Print orchestrator/tool version info

Global Options:
  --json          Output in JSON format (for applicable commands)
  --no-color      Disable color output (respects NO_COLOR env var)
  -v, --verbose   Increase verbosity (-v for info, -vv for debug)
  -q, --quiet     Suppress non-essential output
  -c, --config    Path to .asthra/project.yaml
  -V, --version   Show version and exit

For detailed command help: asthrac <command> --help
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Println("asthrac version dev")
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		*noColor = true
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := globalFlags{
		JSON:       *jsonOutput,
		NoColor:    *noColor,
		Verbose:    *verbose,
		Quiet:      *quiet,
		ConfigPath: *configPath,
	}
	initLogging(globals)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	proj, err := config.Load(globals.ConfigPath)
	if err != nil {
		proj = config.Default()
	}

	switch command {
	case "compile":
		os.Exit(runCompile(cmdArgs, globals, proj))
	case "passes":
		os.Exit(runPasses(cmdArgs, globals))
	case "stats":
		os.Exit(runStats(cmdArgs, globals))
	case "reloc-dump":
		os.Exit(runRelocDump(cmdArgs, globals))
	case "watch":
		os.Exit(runWatch(cmdArgs, globals, proj))
	case "version":
		os.Exit(runVersion(cmdArgs, globals))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// initLogging configures the default slog handler's level from
// globals.Verbose, per SPEC_FULL.md's "Logging" ambient-stack section:
// text handler to stderr at level 0/1, debug-level handler at 2.
func initLogging(g globalFlags) {
	level := slog.LevelWarn
	switch {
	case g.Verbose >= 2:
		level = slog.LevelDebug
	case g.Verbose == 1:
		level = slog.LevelInfo
	}
	if g.Quiet {
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
