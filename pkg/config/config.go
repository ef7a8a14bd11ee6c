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

// Package config loads the project-level `.asthra/project.yaml` file
// that layers over CompilerOptions and the safety presets, the way
// cmd/cie/config.go loads `.cie/project.yaml` over the ingestion
// pipeline's config. It is the yaml.v3 half of SPEC_FULL.md's
// "Configuration" ambient-stack section; the pflag half lives in
// cmd/asthrac.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/llvmtool"
	"github.com/asthra-lang/asthra-backend/pkg/driver"
	"github.com/asthra-lang/asthra-backend/pkg/safety"
)

const (
	defaultConfigDir  = ".asthra"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Project represents the on-disk `.asthra/project.yaml` file: the
// default CompilerOptions for `asthrac compile` plus the safety preset
// and overrides that SafetyConfig turns into a safety.Config.
type Project struct {
	Version string       `yaml:"version"`
	Compile CompileBlock `yaml:"compile"`
	Safety  SafetyBlock  `yaml:"safety"`
}

// CompileBlock mirrors driver.CompilerOptions in yaml-friendly form
// (string level/arch/format names instead of the internal enums).
type CompileBlock struct {
	Optimization string   `yaml:"optimization"` // none|basic|standard|aggressive
	Arch         string   `yaml:"arch"`         // native|x86-64|arm64|wasm32
	Triple       string   `yaml:"triple,omitempty"`
	DebugInfo    bool     `yaml:"debug_info"`
	Format       string   `yaml:"format"` // llvm-ir|bitcode|assembly|object|executable
	CPU          string   `yaml:"cpu,omitempty"`
	Features     string   `yaml:"features,omitempty"`
	Libs         []string `yaml:"libs,omitempty"`
}

// SafetyBlock selects one of the four standard presets (spec.md §4.4
// Configuration) and optionally overrides individual checkers.
type SafetyBlock struct {
	Preset                        string  `yaml:"preset"` // debug|release|testing|paranoid
	FaultInjectionEnabled         *bool   `yaml:"fault_injection_enabled,omitempty"`
	ConstantTimeVarianceThreshold float64 `yaml:"constant_time_variance_threshold,omitempty"`
}

// Default returns a Project with sensible defaults for local
// development: standard optimization, native architecture, object
// output, and the debug safety preset.
func Default() *Project {
	return &Project{
		Version: configVersion,
		Compile: CompileBlock{
			Optimization: "standard",
			Arch:         "native",
			Format:       "object",
		},
		Safety: SafetyBlock{
			Preset: "debug",
		},
	}
}

// Load reads and parses path. An empty path resolves to
// ConfigPath(".") the way cmd/cie's findConfigFile defaults to the
// current directory.
func Load(path string) (*Project, error) {
	if path == "" {
		path = ConfigPath(".")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &p, nil
}

// Save writes p to path as yaml, creating the parent directory if
// needed, mirroring cmd/cie/config.go's SaveConfig.
func Save(p *Project, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ConfigPath returns <dir>/.asthra/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// ConfigDir returns <dir>/.asthra.
func ConfigDir(dir string) string {
	return filepath.Join(dir, defaultConfigDir)
}

// CompilerOptions translates the yaml block into driver.CompilerOptions,
// the struct the driver pipeline actually consumes.
func (p *Project) CompilerOptions() driver.CompilerOptions {
	return driver.CompilerOptions{
		Optimization: parseOptimization(p.Compile.Optimization),
		Arch:         parseArch(p.Compile.Arch),
		Triple:       p.Compile.Triple,
		DebugInfo:    p.Compile.DebugInfo,
		Format:       parseFormat(p.Compile.Format),
		CPU:          p.Compile.CPU,
		Features:     p.Compile.Features,
		Libs:         p.Compile.Libs,
	}
}

// SafetyConfig resolves the yaml block's preset name to one of the four
// standard safety.Config constructors and applies any field overrides.
func (p *Project) SafetyConfig() (safety.Config, error) {
	var cfg safety.Config
	switch p.Safety.Preset {
	case "", "debug":
		cfg = safety.DefaultDebugConfig()
	case "release":
		cfg = safety.DefaultReleaseConfig()
	case "testing":
		cfg = safety.DefaultTestingConfig()
	case "paranoid":
		cfg = safety.DefaultParanoidConfig()
	default:
		return safety.Config{}, fmt.Errorf("unknown safety preset %q", p.Safety.Preset)
	}
	if p.Safety.FaultInjectionEnabled != nil {
		cfg.FaultInjectionEnabled = *p.Safety.FaultInjectionEnabled
	}
	if p.Safety.ConstantTimeVarianceThreshold > 0 {
		cfg.ConstantTimeVarianceThreshold = p.Safety.ConstantTimeVarianceThreshold
	}
	return cfg, nil
}

func parseOptimization(s string) driver.OptimizationLevel {
	switch s {
	case "none":
		return driver.OptNone
	case "basic":
		return driver.OptBasic
	case "aggressive":
		return driver.OptAggressive
	default:
		return driver.OptStandard
	}
}

func parseArch(s string) llvmtool.Arch {
	switch s {
	case "x86-64", "x86_64":
		return llvmtool.ArchX86_64
	case "arm64", "aarch64":
		return llvmtool.ArchARM64
	case "wasm32":
		return llvmtool.ArchWasm32
	default:
		return llvmtool.ArchNative
	}
}

func parseFormat(s string) llvmtool.OutputFormat {
	switch s {
	case "llvm-ir":
		return llvmtool.FormatIR
	case "bitcode":
		return llvmtool.FormatBitcode
	case "assembly":
		return llvmtool.FormatAssembly
	case "executable":
		return llvmtool.FormatExecutable
	default:
		return llvmtool.FormatObject
	}
}
