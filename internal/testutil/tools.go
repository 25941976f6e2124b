package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireShell skips the test on platforms without a POSIX shell.
func RequireShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tools need a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// WriteTool writes an executable shell script named name into dir and
// returns its path. body is the script without the shebang line.
func WriteTool(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // test stub must be executable
		t.Fatalf("write stub tool %s: %v", name, err)
	}
	return path
}
