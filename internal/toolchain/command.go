package toolchain

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mrz1836/bootlink/internal/errors"
)

// CommandLine renders the invocation as a shell-quoted command line that can
// be pasted into a terminal to reproduce it.
func (inv Invocation) CommandLine() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, Quote(inv.Tool))
	for _, a := range inv.Args {
		parts = append(parts, Quote(a))
	}
	line := strings.Join(parts, " ")
	if inv.Dir != "" {
		line = "(cd " + Quote(inv.Dir) + " && " + line + ")"
	}
	return line
}

// Quote returns s quoted for a POSIX shell if it needs quoting.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./=,:+@%", r)
}

// Resolve returns the path of tool. Names containing a path separator are
// returned cleaned and unchanged otherwise; bare names are looked up in PATH.
func Resolve(tool string) (string, error) {
	if tool == "" {
		return "", errors.Wrap(errors.ErrMissingRequiredTools, "empty tool name")
	}
	if strings.ContainsRune(tool, filepath.Separator) {
		return filepath.Clean(tool), nil
	}
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", tool)
	}
	return path, nil
}
