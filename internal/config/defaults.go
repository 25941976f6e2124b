package config

import "github.com/mrz1836/bootlink/internal/constants"

// DefaultConfig returns a new Config with default values.
// Build commands, artifact directories and linker scripts have no sensible
// default and must come from a config file, environment or flags.
func DefaultConfig() *Config {
	return &Config{
		Toolchain: ToolchainConfig{
			Clang:   constants.ToolClang,
			Ar:      constants.ToolAr,
			Objcopy: constants.ToolObjcopy,
		},
		Target: TargetConfig{
			Triple:   constants.DefaultTarget,
			Arch:     constants.DefaultArch,
			OptLevel: constants.DefaultOptLevel,
			Defines:  []string{"NDEBUG"},
		},
		Boot2: Boot2Config{
			ProductConfig: ProductConfig{
				Name:         constants.DefaultBoot2Name,
				ArtifactKind: constants.ArtifactKindStaticLibrary,
			},
		},
		App: AppConfig{
			ProductConfig: ProductConfig{
				Name:         constants.DefaultAppName,
				ArtifactKind: constants.ArtifactKindStaticLibrary,
			},
			WrapSymbols: []string{constants.DefaultWrapSymbol},
			MaxPageSize: constants.MaxPageSize,
		},
		Output: OutputConfig{
			Dir: constants.DefaultOutputDir,
		},
	}
}
