// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/reloc"
	"github.com/asthra-lang/asthra-backend/pkg/config"
	"github.com/asthra-lang/asthra-backend/pkg/driver"
	"github.com/asthra-lang/asthra-backend/pkg/runtime/stats"
	"github.com/asthra-lang/asthra-backend/pkg/safety"
)

const watchDebounce = 300 * time.Millisecond

// runWatch re-runs the compile pipeline whenever input changes on
// disk, mirrored from cmd/cie/watch.go's fsnotify debounce loop
// (SUPPLEMENTED FEATURES #1 in SPEC_FULL.md: a dev-loop watch command
// over the existing C10 driver pipeline, not a new compilation
// concern).
func runWatch(args []string, globals globalFlags, proj *config.Project) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	output := fs.StringP("output", "o", "", "Output file (required)")
	_ = fs.Parse(args)
	inputs := fs.Args()

	if len(inputs) != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "asthrac watch: exactly one input file and -o/--output are required")
		return 1
	}
	input := inputs[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "asthrac watch: %v\n", err)
		return 1
	}
	defer watcher.Close()
	if err := watcher.Add(input); err != nil {
		fmt.Fprintf(os.Stderr, "asthrac watch: %v\n", err)
		return 1
	}

	opts := proj.CompilerOptions()
	safetyCfg, err := proj.SafetyConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "asthrac watch: %v\n", err)
		return 1
	}
	statsReg := stats.New(slog.Default())
	statsReg.Init()
	defer statsReg.Shutdown()

	recompile := func() {
		drv := driver.New(statsReg, reloc.New(), safety.NewSubsystem(safetyCfg, slog.Default()), slog.Default())
		res, aerr := drv.CompileUnit(context.Background(), input, *output, opts)
		if aerr != nil {
			fmt.Fprintf(os.Stderr, "[watch] %s: %v\n", input, aerr)
			return
		}
		fmt.Printf("[watch] %s -> %s (%dns)\n", input, res.OutputFile, res.ElapsedNs)
	}

	recompile()

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time
	fmt.Fprintf(os.Stderr, "[watch] watching %s\n", input)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(watchDebounce)
			timerCh = debounceTimer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "[watch] fsnotify error: %v\n", err)
		case <-timerCh:
			timerCh = nil
			recompile()
		}
	}
}
