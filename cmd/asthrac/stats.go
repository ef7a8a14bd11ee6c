// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/asthra-lang/asthra-backend/pkg/runtime/stats"
)

// runStats prints the statistics registry's current snapshot (spec.md
// §4.2/§6), or serves it over Prometheus's /metrics endpoint when
// --prometheus is passed (SPEC_FULL.md DOMAIN STACK: "StatisticsRegistry
// exposes a prometheus.Collector alongside its native snapshot/JSON
// dump"). A fresh registry only reports the process-lifetime of this
// CLI invocation; a long-running compiler process would hold one
// Registry for its whole lifetime instead.
func runStats(args []string, globals globalFlags) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	prom := fs.Bool("prometheus", false, "Serve /metrics via Prometheus exposition format")
	addr := fs.String("listen", ":9090", "Address to serve /metrics on, with --prometheus")
	_ = fs.Parse(args)

	reg := stats.New(slog.Default())
	reg.Init()
	defer reg.Shutdown()

	if *prom {
		collector := stats.NewCollector(reg)
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collector)
		http.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		fmt.Fprintf(os.Stderr, "serving /metrics on %s\n", *addr)
		if err := http.ListenAndServe(*addr, nil); err != nil {
			fmt.Fprintf(os.Stderr, "asthrac stats: %v\n", err)
			return 1
		}
		return 0
	}

	if err := reg.PrintReport(os.Stdout, globals.JSON); err != nil {
		fmt.Fprintf(os.Stderr, "asthrac stats: %v\n", err)
		return 1
	}
	return 0
}
