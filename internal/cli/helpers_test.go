package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// projectYAML is a complete project config; paths are relative to its directory.
const projectYAML = `
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

// isolateEnv points HOME at an empty directory, so the CLI log lands in the
// test's temp dir, and clears BOOTLINK_ variables.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, "BOOTLINK_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	t.Cleanup(CloseLogFile)
}

// execute runs the CLI with args and returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"})

	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = run(context.Background(), cmd, flags)
	return outBuf.String(), errBuf.String(), err
}

// writeProject writes content as bootlink.yaml, plus the linker scripts and
// runtime object projectYAML names, into a temp dir and returns the config path.
func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"boot2/boot_stage2.ld", "support/memmap_default.ld", "build/crt0.o"} {
		writeFile(t, filepath.Join(dir, f), "x")
	}
	path := filepath.Join(dir, "bootlink.yaml")
	writeFile(t, path, content)
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
