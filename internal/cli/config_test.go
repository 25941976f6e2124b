package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/bootlink/internal/config"
)

func TestConfigShow_YAML(t *testing.T) {
	isolateEnv(t)
	path := writeProject(t, projectYAML)
	dir := filepath.Dir(path)

	stdout, _, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "Blinky", cfg.App.Name)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(t, filepath.Join(dir, "support", "memmap_default.ld"), cfg.App.LinkerScript)
	assert.Equal(t, []string{"__aeabi_lmul"}, cfg.App.WrapSymbols)
}

func TestConfigShow_JSONWithEnvOverride(t *testing.T) {
	isolateEnv(t)
	path := writeProject(t, projectYAML)
	t.Setenv("BOOTLINK_TOOLCHAIN_OBJCOPY", "llvm-objcopy")

	stdout, _, err := execute(t, "--output", "json", "config", "show", "-c", path)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "llvm-objcopy", cfg.Toolchain.Objcopy)
}

func TestConfigShow_IncompleteConfig(t *testing.T) {
	isolateEnv(t)
	path := writeProject(t, "app:\n  name: Blinky\n")

	stdout, _, err := execute(t, "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: Blinky")
}
