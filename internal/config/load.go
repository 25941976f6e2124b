package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// newViperInstance creates a new Viper instance with standard bootlink configuration.
// This includes environment variable prefix (BOOTLINK_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BOOTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into a Config, resolves its
// relative paths against base and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper, base string) (*Config, error) {
	cfg, err := unmarshal(ctx, v, base)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func unmarshal(ctx context.Context, v *viper.Viper, base string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Resolve(base)

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("base", base).
		Str("output.dir", cfg.Output.Dir).
		Str("target.triple", cfg.Target.Triple).
		Msg("configuration loaded and unmarshaled")
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
//  1. Environment variables (BOOTLINK_* prefix)
//  2. Project config (bootlink.yaml in the current directory)
//  3. Global config (~/.bootlink/config.yaml)
//  4. Built-in defaults
//
// Relative paths are resolved against the current directory. Missing config
// files are not an error.
func Load(ctx context.Context) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get working directory")
	}
	return LoadFile(ctx, filepath.Join(wd, ProjectConfigPath()))
}

// LoadFile is like Load but reads the project config from path. Relative
// paths in the configuration are resolved against the directory of path.
// A missing file at path is an error only if it was not the default name.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	v, base, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return unmarshalAndValidate(ctx, v, base)
}

// LoadPartial reads configuration like LoadFile but skips validation. It
// serves commands that need only part of the configuration, such as the
// toolchain for doctor. An empty path means the default project config.
func LoadPartial(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
		path = filepath.Join(wd, ProjectConfigPath())
	}
	v, base, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(ctx, v, base)
}

// readFile layers the global config and the project config at path.
func readFile(path string) (*viper.Viper, string, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, "", err
	}

	if fileExists(path) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, "", errors.Wrap(err, "failed to read project config file")
		}
	} else if filepath.Base(path) != constants.ProjectConfigName {
		return nil, "", errors.Wrapf(os.ErrNotExist, "config file %s", path)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, "", errors.Wrap(err, "resolve project directory")
	}
	return v, base, nil
}

// loadGlobalConfig attempts to load the global config file (~/.bootlink/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	path, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if !fileExists(path) {
		return "", false
	}
	return path, true
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration from path and applies CLI flag
// overrides, which have the highest precedence. Only non-zero override
// values are applied. An empty path means the default project config.
func LoadWithOverrides(ctx context.Context, path string, overrides *Config) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = Load(ctx)
	} else {
		cfg, err = LoadFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level. Relative paths are resolved
// against the project config's directory, or the current directory if none.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	base := "."
	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
		base = filepath.Dir(projectConfigPath)
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, errors.Wrap(err, "resolve project directory")
	}

	return unmarshalAndValidate(ctx, v, base)
}

// setDefaults configures all default values on the Viper instance.
// Keys without a useful default are still registered so that the matching
// BOOTLINK_* environment variables are picked up by AutomaticEnv.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("toolchain.clang", d.Toolchain.Clang)
	v.SetDefault("toolchain.ar", d.Toolchain.Ar)
	v.SetDefault("toolchain.objcopy", d.Toolchain.Objcopy)

	v.SetDefault("target.triple", d.Target.Triple)
	v.SetDefault("target.arch", d.Target.Arch)
	v.SetDefault("target.opt_level", d.Target.OptLevel)
	v.SetDefault("target.defines", d.Target.Defines)

	v.SetDefault("boot2.name", d.Boot2.Name)
	v.SetDefault("boot2.build", []string{})
	v.SetDefault("boot2.dir", "")
	v.SetDefault("boot2.artifact_dir", "")
	v.SetDefault("boot2.artifact_kind", d.Boot2.ArtifactKind)
	v.SetDefault("boot2.linker_script", "")

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.build", []string{})
	v.SetDefault("app.dir", "")
	v.SetDefault("app.artifact_dir", "")
	v.SetDefault("app.artifact_kind", d.App.ArtifactKind)
	v.SetDefault("app.linker_script", "")
	v.SetDefault("app.runtime_objects", []string{})
	v.SetDefault("app.wrap_symbols", d.App.WrapSymbols)
	v.SetDefault("app.max_page_size", d.App.MaxPageSize)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.formats", []string{})
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Toolchain.Clang != "" {
		cfg.Toolchain.Clang = overrides.Toolchain.Clang
	}
	if overrides.Toolchain.Ar != "" {
		cfg.Toolchain.Ar = overrides.Toolchain.Ar
	}
	if overrides.Toolchain.Objcopy != "" {
		cfg.Toolchain.Objcopy = overrides.Toolchain.Objcopy
	}
	if overrides.Output.Dir != "" {
		dir, err := filepath.Abs(overrides.Output.Dir)
		if err != nil {
			dir = overrides.Output.Dir
		}
		cfg.Output.Dir = dir
	}
	if len(overrides.Output.Formats) > 0 {
		cfg.Output.Formats = overrides.Output.Formats
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// Comma-separated strings from the environment decode into slices.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
