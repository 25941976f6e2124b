package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// validProjectYAML is a complete project config with relative paths.
const validProjectYAML = `
boot2:
  build: ["make", "boot2"]
  artifact_dir: build/boot2
  linker_script: boot2/boot_stage2.ld
app:
  name: Blinky
  build: ["make", "app"]
  artifact_dir: build/app
  linker_script: support/memmap_default.ld
  runtime_objects:
    - build/crt0.o
output:
  dir: out
`

// writeConfig writes content to dir/name and returns the path.
func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolateEnv points HOME at an empty directory and clears BOOTLINK_ variables.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, "BOOTLINK_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Boot2.Build = []string{"make", "boot2"}
	cfg.Boot2.ArtifactDir = "/p/build/boot2"
	cfg.Boot2.LinkerScript = "/p/boot2.ld"
	cfg.App.Build = []string{"make", "app"}
	cfg.App.ArtifactDir = "/p/build/app"
	cfg.App.LinkerScript = "/p/memmap.ld"
	return cfg
}
