// Package config provides configuration management for bootlink with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (BOOTLINK_* prefix)
//  3. Project config (bootlink.yaml)
//  4. Global config (~/.bootlink/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import (
	"path/filepath"

	"github.com/mrz1836/bootlink/internal/constants"
)

// Config is the root configuration structure for bootlink.
// It is passed explicitly to the pipeline; there is no global instance.
type Config struct {
	// Toolchain names the external programs. Bare names are resolved through PATH.
	Toolchain ToolchainConfig `yaml:"toolchain" mapstructure:"toolchain" json:"toolchain"`

	// Target contains the cross-compilation settings shared by every clang stage.
	Target TargetConfig `yaml:"target" mapstructure:"target" json:"target"`

	// Boot2 describes the second-stage bootloader product.
	Boot2 Boot2Config `yaml:"boot2" mapstructure:"boot2" json:"boot2"`

	// App describes the application product and its final link.
	App AppConfig `yaml:"app" mapstructure:"app" json:"app"`

	// Output controls where results are written and which images are exported.
	Output OutputConfig `yaml:"output" mapstructure:"output" json:"output"`
}

// ToolchainConfig names the external tools used by the pipeline.
type ToolchainConfig struct {
	// Clang compiles, assembles and links. Default: "clang"
	Clang string `yaml:"clang" mapstructure:"clang" json:"clang"`

	// Ar extracts the boot2 object from its archive. Default: "ar"
	Ar string `yaml:"ar" mapstructure:"ar" json:"ar"`

	// Objcopy dumps the boot2 ELF as a raw binary. Default: "objcopy"
	Objcopy string `yaml:"objcopy" mapstructure:"objcopy" json:"objcopy"`
}

// TargetConfig holds the configurable part of the common cross flags.
// Soft-float, -nostdlib and --build-id=none are always applied.
type TargetConfig struct {
	// Triple is passed as --target. Default: "armv6m-none-eabi"
	Triple string `yaml:"triple" mapstructure:"triple" json:"triple"`

	// Arch is passed as -march. Default: "armv6m"
	Arch string `yaml:"arch" mapstructure:"arch" json:"arch"`

	// OptLevel is the optimization flag. Default: "-O3"
	OptLevel string `yaml:"opt_level" mapstructure:"opt_level" json:"opt_level"`

	// Defines are passed as -D flags. Default: ["NDEBUG"]
	Defines []string `yaml:"defines" mapstructure:"defines" json:"defines"`
}

// ProductConfig describes how one product is built and where its artifact appears.
type ProductConfig struct {
	// Name identifies the product in logs and errors. The app name also
	// names the final executable.
	Name string `yaml:"name" mapstructure:"name" json:"name"`

	// Build is the build command as an argument vector. It is run without a shell.
	Build []string `yaml:"build" mapstructure:"build" json:"build"`

	// Dir is the working directory of the build command. Default: project root
	Dir string `yaml:"dir" mapstructure:"dir" json:"dir"`

	// ArtifactDir is searched for the built artifact after the build command succeeds.
	ArtifactDir string `yaml:"artifact_dir" mapstructure:"artifact_dir" json:"artifact_dir"`

	// ArtifactKind is "static_library" or "object_file". Default: "static_library"
	ArtifactKind string `yaml:"artifact_kind" mapstructure:"artifact_kind" json:"artifact_kind"`
}

// Boot2Config describes the boot2 product.
type Boot2Config struct {
	ProductConfig `yaml:",inline" mapstructure:",squash"`

	// LinkerScript places boot2 at the start of flash. Required.
	LinkerScript string `yaml:"linker_script" mapstructure:"linker_script" json:"linker_script"`
}

// AppConfig describes the application product and the final link.
type AppConfig struct {
	ProductConfig `yaml:",inline" mapstructure:",squash"`

	// LinkerScript is the memory map of the final image. Required.
	LinkerScript string `yaml:"linker_script" mapstructure:"linker_script" json:"linker_script"`

	// RuntimeObjects are linked before the app artifact (crt0, intrinsic replacements).
	RuntimeObjects []string `yaml:"runtime_objects" mapstructure:"runtime_objects" json:"runtime_objects"`

	// WrapSymbols get one --wrap each. Default: ["__aeabi_lmul"]
	WrapSymbols []string `yaml:"wrap_symbols" mapstructure:"wrap_symbols" json:"wrap_symbols"`

	// MaxPageSize is passed as -z max-page-size. Default: 4096
	MaxPageSize int `yaml:"max_page_size" mapstructure:"max_page_size" json:"max_page_size"`
}

// OutputConfig controls the output directory and exports.
type OutputConfig struct {
	// Dir receives the final executable; intermediates go to Dir/intermediates.
	// Default: ".build/bootlink"
	Dir string `yaml:"dir" mapstructure:"dir" json:"dir"`

	// Formats lists extra images exported after the link: bin, hex, uf2.
	Formats []string `yaml:"formats" mapstructure:"formats" json:"formats"`
}

// IntermediatesDir returns the directory holding the per-run intermediates.
func (o OutputConfig) IntermediatesDir() string {
	return filepath.Join(o.Dir, constants.IntermediatesDir)
}

// Resolve makes every relative path in cfg absolute against base.
// Tool names without a path separator are left for PATH lookup.
func (c *Config) Resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	tool := func(p string) string {
		if filepath.Base(p) == p {
			return p
		}
		return abs(p)
	}

	c.Toolchain.Clang = tool(c.Toolchain.Clang)
	c.Toolchain.Ar = tool(c.Toolchain.Ar)
	c.Toolchain.Objcopy = tool(c.Toolchain.Objcopy)

	for _, p := range []*ProductConfig{&c.Boot2.ProductConfig, &c.App.ProductConfig} {
		if p.Dir == "" {
			p.Dir = base
		} else {
			p.Dir = abs(p.Dir)
		}
		p.ArtifactDir = abs(p.ArtifactDir)
	}
	c.Boot2.LinkerScript = abs(c.Boot2.LinkerScript)
	c.App.LinkerScript = abs(c.App.LinkerScript)
	for i, o := range c.App.RuntimeObjects {
		c.App.RuntimeObjects[i] = abs(o)
	}
	c.Output.Dir = abs(c.Output.Dir)
}
