// Package constants provides centralized constant values used throughout bootlink.
// This file contains tool-related constants for the toolchain and doctor checks.
package constants

import "time"

// Tool detection timeout configuration.
const (
	// ToolDetectionTimeout is the maximum duration for detecting all tools.
	// Detection runs in parallel but must complete within this timeout.
	ToolDetectionTimeout = 5 * time.Second
)

// Default tool names resolved through PATH.
const (
	// ToolClang is the compiler and linker front-end.
	ToolClang = "clang"

	// ToolAr is the archiver used to extract boot2 object code.
	ToolAr = "ar"

	// ToolObjcopy converts the boot2 image into a raw binary.
	ToolObjcopy = "objcopy"
)

// Default cross-compilation settings for the RP2040 (Cortex-M0+).
const (
	// DefaultTarget is the clang target triple.
	DefaultTarget = "armv6m-none-eabi"

	// DefaultArch is the value passed to -march.
	DefaultArch = "armv6m"

	// DefaultOptLevel is the optimization flag.
	DefaultOptLevel = "-O3"

	// DefaultWrapSymbol is the compiler intrinsic replaced at final link.
	DefaultWrapSymbol = "__aeabi_lmul"
)

// Tool version command arguments.
const (
	// VersionFlagStandard is the standard version flag used by most tools.
	VersionFlagStandard = "--version"
)
