package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/errors"
)

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.0.0 (commit: abc, built: today)", formatVersion(BuildInfo{Version: "1.0.0", Commit: "abc", Date: "today"}))
	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
}

func TestRoot_Version(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1.2.3 (commit: abc123, built: 2026-01-01)")
}

func TestRoot_ListsCommands(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t)
	require.NoError(t, err)
	for _, name := range []string{"link", "checksum", "verify", "export", "doctor", "config"} {
		assert.Contains(t, stdout, name)
	}
}

func TestRoot_InvalidOutputFormat(t *testing.T) {
	isolateEnv(t)

	_, stderr, err := execute(t, "--output", "yaml", "config", "show")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	assert.Contains(t, stderr, `"yaml"`)
}

func TestRoot_OutputFormatFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("BOOTLINK_OUTPUT", "json")

	stdout, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Contains(t, cfg, "toolchain")
}

func TestRoot_VerboseAndQuietConflict(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "-v", "-q", "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRoot_UnknownCommand(t *testing.T) {
	isolateEnv(t)

	_, stderr, err := execute(t, "flash")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	assert.Contains(t, stderr, "unknown command")
}

func TestRoot_ErrorsRenderedAsJSON(t *testing.T) {
	isolateEnv(t)

	stdout, stderr, err := execute(t, "--output", "json", "checksum", "only-one")
	require.Error(t, err)
	assert.Empty(t, stdout)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stderr)), &msg))
	assert.Equal(t, "error", msg["type"])
	assert.Contains(t, msg["details"], "expected 2 arguments")
}

func TestGetLogger_AfterCommand(t *testing.T) {
	isolateEnv(t)
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "-q", "config", "show")
	require.NoError(t, err)
	assert.Equal(t, "warn", GetLogger().GetLevel().String())
}
