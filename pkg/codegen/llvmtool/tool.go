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

// Package llvmtool drives the external opt/llc/clang toolchain the way
// pkg/tools/git.go drives git: resolve a binary on PATH, spawn it with
// exec.CommandContext, capture stdout/stderr into buffers, and turn a
// nonzero exit or spawn failure into a wrapped *asthraerr.Error.
package llvmtool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/asthra-lang/asthra-backend/pkg/asthraerr"
)

// ToolResult is the record produced by every external-tool invocation
// (spec.md §3).
type ToolResult struct {
	Success   bool
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	ElapsedMs int64
}

// Orchestrator resolves and invokes llc, opt, and clang. Mirrors
// GitExecutor's shape: a small struct holding resolved paths, with one
// method per external operation.
type Orchestrator struct {
	lookPath func(string) (string, error)
	resolved map[string]string
}

// New constructs an Orchestrator that resolves tools via exec.LookPath.
func New() *Orchestrator {
	return &Orchestrator{lookPath: exec.LookPath, resolved: make(map[string]string)}
}

var requiredTools = [...]string{"llc", "opt", "clang"}

// ToolsAvailable locates llc, opt, and clang on the search path,
// returning true only if every one of them resolves.
func (o *Orchestrator) ToolsAvailable() bool {
	for _, name := range requiredTools {
		if _, err := o.ToolPath(name); err != nil {
			return false
		}
	}
	return true
}

// ToolPath returns the resolved absolute path for name, caching the
// result for subsequent calls.
func (o *Orchestrator) ToolPath(name string) (string, *asthraerr.Error) {
	if path, ok := o.resolved[name]; ok {
		return path, nil
	}
	path, err := o.lookPath(name)
	if err != nil {
		return "", asthraerr.Wrap(asthraerr.KindIO, "llvmtool", fmt.Sprintf("tool %q not found on search path", name), err)
	}
	o.resolved[name] = path
	return path, nil
}

// Version runs `llc --version` and extracts the token following
// "LLVM version".
func (o *Orchestrator) Version(ctx context.Context) (string, *asthraerr.Error) {
	result, aerr := o.run(ctx, "llc", []string{"--version"}, true)
	if aerr != nil {
		return "", aerr
	}
	if !result.Success {
		return "", asthraerr.New(asthraerr.KindIO, "llvmtool", "llc --version exited non-zero")
	}
	const marker = "LLVM version"
	text := string(result.Stdout)
	idx := strings.Index(text, marker)
	if idx < 0 {
		return "", asthraerr.New(asthraerr.KindIO, "llvmtool", "could not locate LLVM version string in llc output")
	}
	rest := strings.TrimSpace(text[idx+len(marker):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", asthraerr.New(asthraerr.KindIO, "llvmtool", "llc --version output had no version token")
	}
	return fields[0], nil
}

// run is the common spawn-with-capture path: resolves name, builds the
// command, optionally pipes stdout/stderr, and measures elapsed time.
// Capture is skipped when the caller does not need it, avoiding a
// deadlock on small pipe buffers for long-running invocations.
func (o *Orchestrator) run(ctx context.Context, name string, args []string, capture bool) (ToolResult, *asthraerr.Error) {
	path, aerr := o.ToolPath(name)
	if aerr != nil {
		return ToolResult{}, aerr
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	result := ToolResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ElapsedMs: elapsed}
	if err == nil {
		result.Success = true
		result.ExitCode = 0
		return result, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, asthraerr.Wrap(asthraerr.KindIO, "llvmtool", fmt.Sprintf("%s exited with code %d", name, result.ExitCode), err)
	}
	return result, asthraerr.Wrap(asthraerr.KindResource, "llvmtool", fmt.Sprintf("failed to spawn %s", name), err)
}

// OutputFilename keeps the pre-extension portion of input and appends
// the extension conventional for format (spec.md §4.5).
func OutputFilename(input string, format OutputFormat) string {
	base := input
	if idx := strings.LastIndex(base, "."); idx > strings.LastIndexAny(base, "/\\") {
		base = base[:idx]
	}
	switch format {
	case FormatIR:
		return base + ".ll"
	case FormatBitcode:
		return base + ".bc"
	case FormatAssembly:
		return base + ".s"
	case FormatObject:
		return base + ".o"
	case FormatExecutable:
		return base
	default:
		return base
	}
}

// OutputFormat is the final artifact kind compile_pipeline produces.
type OutputFormat int

const (
	FormatIR OutputFormat = iota
	FormatBitcode
	FormatAssembly
	FormatObject
	FormatExecutable
)

// Arch is a named target architecture for TargetTriple.
type Arch int

const (
	ArchNative Arch = iota
	ArchX86_64
	ArchARM64
	ArchWasm32
)

// HostOS distinguishes the triple's OS component for non-native
// architectures.
type HostOS int

const (
	HostLinux HostOS = iota
	HostDarwin
	HostWindows
)

// CurrentHostOS maps runtime.GOOS to the HostOS enum used by
// TargetTriple.
func CurrentHostOS() HostOS {
	switch runtime.GOOS {
	case "darwin":
		return HostDarwin
	case "windows":
		return HostWindows
	default:
		return HostLinux
	}
}

// TargetTriple derives an LLVM target-triple string for arch given
// host. ArchNative returns "", letting LLVM pick, as spec.md §4.5
// requires.
func TargetTriple(arch Arch, host HostOS) string {
	switch arch {
	case ArchNative:
		return ""
	case ArchX86_64:
		return tripleFor("x86_64", host)
	case ArchARM64:
		return tripleFor("aarch64", host)
	case ArchWasm32:
		return "wasm32-unknown-unknown"
	default:
		return ""
	}
}

func tripleFor(archName string, host HostOS) string {
	switch host {
	case HostDarwin:
		return archName + "-apple-darwin"
	case HostWindows:
		return archName + "-pc-windows-msvc"
	default:
		return archName + "-unknown-linux-gnu"
	}
}
