package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	blerrors "github.com/mrz1836/bootlink/internal/errors"
)

// Invocation is one external program run.
type Invocation struct {
	// Stage names the pipeline stage the invocation belongs to. Used for
	// logging and error reporting only.
	Stage string   `json:"stage,omitempty"`
	Tool  string   `json:"tool"`
	Args  []string `json:"args"`
	// Dir is the working directory. Empty means the current directory.
	Dir string `json:"dir,omitempty"`
}

// Output is the captured result of a finished process.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Combined returns stderr followed by stdout, for diagnostics.
func (o *Output) Combined() string {
	if o == nil {
		return ""
	}
	switch {
	case o.Stderr == "":
		return o.Stdout
	case o.Stdout == "":
		return o.Stderr
	default:
		return o.Stderr + "\n" + o.Stdout
	}
}

// Runner executes invocations. Implementations block until the process exits.
type Runner interface {
	// Run executes inv. A non-zero exit returns the captured Output together
	// with a *errors.ToolInvocationError.
	Run(ctx context.Context, inv Invocation) (*Output, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// LiveOutput, when set, receives stdout and stderr as they are produced.
	// Output is still captured.
	LiveOutput io.Writer
	// Env overrides the process environment when non-nil.
	Env []string
}

// NewExecRunner returns an ExecRunner without live output.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes inv and waits for it to exit. No timeout is imposed.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	logInvocation(ctx, inv)

	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...) //#nosec G204 -- tool and args come from trusted project configuration
	cmd.Dir = inv.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var outBuf, errBuf bytes.Buffer
	if r.LiveOutput != nil {
		cmd.Stdout = io.MultiWriter(&outBuf, r.LiveOutput)
		cmd.Stderr = io.MultiWriter(&errBuf, r.LiveOutput)
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
		logFailure(ctx, inv, out)
		return out, &blerrors.ToolInvocationError{
			Stage:    inv.Stage,
			Command:  inv.CommandLine(),
			ExitCode: out.ExitCode,
			Stderr:   out.Stderr,
			Err:      err,
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("stage", inv.Stage).
		Str("tool", inv.Tool).
		Int64("duration_ms", out.Duration.Milliseconds()).
		Msg("tool finished")
	return out, nil
}

// logInvocation records the exact command before it runs so any failure can
// be reproduced from the log alone.
func logInvocation(ctx context.Context, inv Invocation) {
	event := zerolog.Ctx(ctx).Info().
		Str("tool", inv.Tool).
		Strs("args", inv.Args)
	if inv.Stage != "" {
		event = event.Str("stage", inv.Stage)
	}
	if inv.Dir != "" {
		event = event.Str("dir", inv.Dir)
	}
	event.Msg("executing tool")
}

func logFailure(ctx context.Context, inv Invocation, out *Output) {
	zerolog.Ctx(ctx).Error().
		Str("stage", inv.Stage).
		Str("tool", inv.Tool).
		Int("exit_code", out.ExitCode).
		Int64("duration_ms", out.Duration.Milliseconds()).
		Str("stderr", out.Stderr).
		Msg("tool failed")
}

var _ Runner = (*ExecRunner)(nil)
