// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
	"github.com/asthra-lang/asthra-backend/pkg/driver"
	"github.com/asthra-lang/asthra-backend/pkg/safety"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".asthra", "project.yaml")

	want := Default()
	want.Compile.Optimization = "aggressive"
	want.Compile.Arch = "arm64"
	want.Safety.Preset = "paranoid"

	require.NoError(t, Save(want, path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.Compile.Optimization, got.Compile.Optimization)
	require.Equal(t, want.Compile.Arch, got.Compile.Arch)
	require.Equal(t, want.Safety.Preset, got.Safety.Preset)
}

func TestCompilerOptionsTranslation(t *testing.T) {
	p := Default()
	p.Compile.Optimization = "aggressive"
	p.Compile.Arch = "wasm32"
	p.Compile.Format = "executable"

	opts := p.CompilerOptions()
	require.Equal(t, driver.OptAggressive, opts.Optimization)
	require.Equal(t, llvmtool.ArchWasm32, opts.Arch)
	require.Equal(t, llvmtool.FormatExecutable, opts.Format)
}

func TestSafetyConfigPresetsAndOverride(t *testing.T) {
	p := Default()
	p.Safety.Preset = "release"
	cfg, err := p.SafetyConfig()
	require.NoError(t, err)
	require.Equal(t, safety.LevelBasic, cfg.Level)
	require.False(t, cfg.FaultInjectionEnabled)

	enabled := true
	p.Safety.FaultInjectionEnabled = &enabled
	cfg, err = p.SafetyConfig()
	require.NoError(t, err)
	require.True(t, cfg.FaultInjectionEnabled)

	p.Safety.Preset = "bogus"
	_, err = p.SafetyConfig()
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
