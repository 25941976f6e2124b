package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UsageError reports a malformed command-line invocation.
type UsageError struct {
	Msg string
}

// NewUsageError returns a UsageError wrapped for exit code 2.
func NewUsageError(format string, args ...any) error {
	return NewExitCode2Error(&UsageError{Msg: fmt.Sprintf(format, args...)})
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Unwrap returns ErrUsage.
func (e *UsageError) Unwrap() error {
	return ErrUsage
}

// SizeError reports a boot image larger than the boot ROM accepts.
type SizeError struct {
	Actual int
	Max    int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("input is %d bytes, maximum allowed is %d bytes", e.Actual, e.Max)
}

// Unwrap returns ErrImageTooLarge.
func (e *SizeError) Unwrap() error {
	return ErrImageTooLarge
}

// ToolInvocationError reports an external tool that exited non-zero.
// ExitCode is -1 when the process could not be started at all.
type ToolInvocationError struct {
	Stage    string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolInvocationError) Error() string {
	msg := e.status()
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

// status describes how the tool failed, without its stderr.
func (e *ToolInvocationError) status() string {
	var b strings.Builder
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s: could not start", e.Command)
	} else {
		fmt.Fprintf(&b, "%s: exit status %d", e.Command, e.ExitCode)
	}
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns ErrToolInvocation and the underlying process error.
func (e *ToolInvocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolInvocation}
	}
	return []error{ErrToolInvocation, e.Err}
}

// BuildError reports a failed product build together with its log.
type BuildError struct {
	Product string
	Log     string
	Err     error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("building product %q failed", e.Product)
	if e.Err != nil {
		// the log already carries the tool's stderr
		var invErr *ToolInvocationError
		if strings.TrimSpace(e.Log) != "" && errors.As(e.Err, &invErr) {
			msg += ": " + invErr.status()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if s := strings.TrimSpace(e.Log); s != "" {
		msg += "\n" + s
	}
	return msg
}

// Unwrap returns ErrBuildFailed and the underlying cause.
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBuildFailed}
	}
	return []error{ErrBuildFailed, e.Err}
}

// ArtifactCardinalityError reports a stage that found zero or several
// artifacts where it expected exactly one.
type ArtifactCardinalityError struct {
	Kind  string
	Paths []string
}

func (e *ArtifactCardinalityError) Error() string {
	if len(e.Paths) == 0 {
		return fmt.Sprintf("expected exactly one %s, found none", e.Kind)
	}
	return fmt.Sprintf("expected exactly one %s, found %d: %s",
		e.Kind, len(e.Paths), strings.Join(e.Paths, ", "))
}

// Unwrap returns ErrArtifactCardinality.
func (e *ArtifactCardinalityError) Unwrap() error {
	return ErrArtifactCardinality
}

// LinkError reports a failed final link with the linker's diagnostics.
type LinkError struct {
	Product string
	Output  string
	Err     error
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("linking %s failed", e.Product)
	if s := strings.TrimSpace(e.Output); s != "" {
		msg += "\n" + s
	}
	return msg
}

// Unwrap returns ErrLinkFailed and the underlying cause.
func (e *LinkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLinkFailed}
	}
	return []error{ErrLinkFailed, e.Err}
}

// StageError is the single top-level error returned by the pipeline.
// It names the failing stage, the exact command line that failed (if the
// stage ran a tool) and the captured diagnostic output.
type StageError struct {
	Stage   string
	Command string
	Output  string
	Err     error
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %s failed", e.Stage)
	if e.Command != "" {
		fmt.Fprintf(&b, "\n  command: %s", e.Command)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "\n  error: %s", firstLine(e.Err.Error()))
	}
	if s := strings.TrimSpace(e.Output); s != "" {
		b.WriteString("\n  output:\n")
		for _, line := range strings.Split(s, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Unwrap returns the stage's cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
