// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llvmtool

import (
	"errors"
	"testing"
)

func TestOutputFilename_AppendsExtensionPerFormat(t *testing.T) {
	cases := []struct {
		format OutputFormat
		want   string
	}{
		{FormatIR, "out.ll"},
		{FormatBitcode, "out.bc"},
		{FormatAssembly, "out.s"},
		{FormatObject, "out.o"},
		{FormatExecutable, "out"},
	}
	for _, c := range cases {
		if got := OutputFilename("path/to/out.asthra", c.format); got != "path/to/"+c.want {
			t.Errorf("OutputFilename(format=%d) = %q, want %q", c.format, got, "path/to/"+c.want)
		}
	}
}

func TestOutputFilename_NoExtensionInput(t *testing.T) {
	if got := OutputFilename("out", FormatObject); got != "out.o" {
		t.Fatalf("got %q", got)
	}
}

func TestTargetTriple_NativeReturnsEmpty(t *testing.T) {
	if got := TargetTriple(ArchNative, HostLinux); got != "" {
		t.Fatalf("got %q, want empty for native", got)
	}
}

func TestTargetTriple_NamedArchitectures(t *testing.T) {
	cases := []struct {
		arch Arch
		host HostOS
		want string
	}{
		{ArchX86_64, HostLinux, "x86_64-unknown-linux-gnu"},
		{ArchX86_64, HostDarwin, "x86_64-apple-darwin"},
		{ArchARM64, HostWindows, "aarch64-pc-windows-msvc"},
		{ArchWasm32, HostLinux, "wasm32-unknown-unknown"},
	}
	for _, c := range cases {
		if got := TargetTriple(c.arch, c.host); got != c.want {
			t.Errorf("TargetTriple(%d,%d) = %q, want %q", c.arch, c.host, got, c.want)
		}
	}
}

func TestToolPath_CachesResolvedPath(t *testing.T) {
	calls := 0
	o := New()
	o.lookPath = func(name string) (string, error) {
		calls++
		return "/usr/bin/" + name, nil
	}
	path1, err := o.ToolPath("llc")
	if err != nil {
		t.Fatalf("ToolPath: %v", err)
	}
	path2, err := o.ToolPath("llc")
	if err != nil {
		t.Fatalf("ToolPath second call: %v", err)
	}
	if path1 != path2 || path1 != "/usr/bin/llc" {
		t.Fatalf("path1=%q path2=%q", path1, path2)
	}
	if calls != 1 {
		t.Fatalf("lookPath called %d times, want 1 (cached)", calls)
	}
}

func TestToolPath_NotFoundWrapsError(t *testing.T) {
	o := New()
	o.lookPath = func(name string) (string, error) {
		return "", errors.New("not found")
	}
	if _, err := o.ToolPath("opt"); err == nil {
		t.Fatal("expected error for unresolved tool")
	}
}

func TestToolsAvailable_FalseWhenAnyToolMissing(t *testing.T) {
	o := New()
	o.lookPath = func(name string) (string, error) {
		if name == "clang" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	if o.ToolsAvailable() {
		t.Fatal("expected ToolsAvailable to be false when clang is missing")
	}
}

func TestToolsAvailable_TrueWhenAllResolve(t *testing.T) {
	o := New()
	o.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	if !o.ToolsAvailable() {
		t.Fatal("expected ToolsAvailable to be true when all tools resolve")
	}
}
