package config

import (
	"slices"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - every toolchain entry must be set
//   - target triple, arch and optimization level must be set
//   - both products need a build command, an artifact directory and a linker script
//   - artifact kinds must be static_library or object_file
//   - max page size must be a positive power of two
//   - the output directory must be set and formats must be bin, hex or uf2
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateToolchainConfig(&cfg.Toolchain); err != nil {
		return err
	}
	if err := validateTargetConfig(&cfg.Target); err != nil {
		return err
	}
	if err := validateProduct("boot2", &cfg.Boot2.ProductConfig, cfg.Boot2.LinkerScript); err != nil {
		return err
	}
	if err := validateProduct("app", &cfg.App.ProductConfig, cfg.App.LinkerScript); err != nil {
		return err
	}
	if p := cfg.App.MaxPageSize; p <= 0 || p&(p-1) != 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"app.max_page_size must be a positive power of two, got %d", p)
	}
	return validateOutputConfig(&cfg.Output)
}

func validateToolchainConfig(cfg *ToolchainConfig) error {
	switch {
	case cfg.Clang == "":
		return errors.Wrap(errors.ErrConfigInvalid, "toolchain.clang must not be empty")
	case cfg.Ar == "":
		return errors.Wrap(errors.ErrConfigInvalid, "toolchain.ar must not be empty")
	case cfg.Objcopy == "":
		return errors.Wrap(errors.ErrConfigInvalid, "toolchain.objcopy must not be empty")
	}
	return nil
}

func validateTargetConfig(cfg *TargetConfig) error {
	switch {
	case cfg.Triple == "":
		return errors.Wrap(errors.ErrConfigInvalid, "target.triple must not be empty")
	case cfg.Arch == "":
		return errors.Wrap(errors.ErrConfigInvalid, "target.arch must not be empty")
	case cfg.OptLevel == "":
		return errors.Wrap(errors.ErrConfigInvalid, "target.opt_level must not be empty")
	}
	return nil
}

func validateProduct(key string, p *ProductConfig, linkerScript string) error {
	if p.Name == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "%s.name must not be empty", key)
	}
	if len(p.Build) == 0 || p.Build[0] == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "%s.build must name a command", key)
	}
	if p.ArtifactDir == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "%s.artifact_dir must not be empty", key)
	}
	if p.ArtifactKind != constants.ArtifactKindStaticLibrary && p.ArtifactKind != constants.ArtifactKindObjectFile {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"%s.artifact_kind must be %q or %q, got %q", key,
			constants.ArtifactKindStaticLibrary, constants.ArtifactKindObjectFile, p.ArtifactKind)
	}
	if linkerScript == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "%s.linker_script must not be empty", key)
	}
	return nil
}

// ValidFormats lists the accepted output.formats values.
var ValidFormats = []string{constants.FormatBin, constants.FormatHex, constants.FormatUF2} //nolint:gochecknoglobals // read-only lookup table

func validateOutputConfig(cfg *OutputConfig) error {
	if cfg.Dir == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "output.dir must not be empty")
	}
	for _, f := range cfg.Formats {
		if !slices.Contains(ValidFormats, f) {
			return errors.Wrapf(errors.ErrUnsupportedFormat, "output.formats: %q", f)
		}
	}
	return nil
}
