package testutil

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

// FakeToolchain is an in-process toolchain.Runner that records invocations
// and fabricates the files each pipeline stage is expected to produce.
// Output files are derived only from the invocation arguments, so identical
// invocations produce identical files.
type FakeToolchain struct {
	// Builds maps a build stage name to the artifact path its build writes.
	Builds map[string]string

	// FailStage makes every invocation of that stage exit with status 1.
	FailStage string

	// FailStderr is the diagnostic output of the failing invocation.
	FailStderr string

	// Members is what `ar t` lists. Default: one object file.
	Members []string

	// Boot2Size is the size of the raw boot2 binary objcopy writes.
	Boot2Size int

	// Outputs maps a stage name to the exact bytes written to its -o path.
	// Stages not listed get a digest of their arguments.
	Outputs map[string][]byte

	// SkipOutputs lists stages that succeed without writing their output.
	SkipOutputs []string

	mu    sync.Mutex
	calls []toolchain.Invocation
}

// NewFakeToolchain returns a FakeToolchain with a 200-byte boot2 and a
// single archive member.
func NewFakeToolchain() *FakeToolchain {
	return &FakeToolchain{
		Builds:    map[string]string{},
		Outputs:   map[string][]byte{},
		Members:   []string{"compile_time_choice.S.o"},
		Boot2Size: 200,
	}
}

// Calls returns the recorded invocations in order.
func (f *FakeToolchain) Calls() []toolchain.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Stages returns the distinct stage names in invocation order.
func (f *FakeToolchain) Stages() []string {
	var stages []string
	for _, c := range f.Calls() {
		if len(stages) == 0 || stages[len(stages)-1] != c.Stage {
			stages = append(stages, c.Stage)
		}
	}
	return stages
}

// Run implements toolchain.Runner.
func (f *FakeToolchain) Run(_ context.Context, inv toolchain.Invocation) (*toolchain.Output, error) {
	f.mu.Lock()
	inv.Args = slices.Clone(inv.Args)
	f.calls = append(f.calls, inv)
	f.mu.Unlock()

	if inv.Stage == f.FailStage {
		out := &toolchain.Output{ExitCode: 1, Stderr: f.FailStderr}
		return out, &errors.ToolInvocationError{
			Stage:    inv.Stage,
			Command:  inv.CommandLine(),
			ExitCode: 1,
			Stderr:   f.FailStderr,
		}
	}
	if slices.Contains(f.SkipOutputs, inv.Stage) {
		return &toolchain.Output{}, nil
	}

	out := &toolchain.Output{}
	var err error
	switch {
	case f.Builds[inv.Stage] != "":
		err = writeFile(f.Builds[inv.Stage], "archive:"+inv.Stage)
	case len(inv.Args) > 0 && inv.Args[0] == "t":
		out.Stdout = strings.Join(f.Members, "\n") + "\n"
	case len(inv.Args) == 3 && inv.Args[0] == "x":
		err = writeFile(filepath.Join(inv.Dir, inv.Args[2]), "member:"+inv.Args[2])
	case len(inv.Args) > 0 && inv.Args[0] == "-Obinary":
		err = f.writeBoot2(inv.Args[len(inv.Args)-1])
	default:
		if o := outputFlag(inv.Args); o != "" && f.Outputs[inv.Stage] != nil {
			err = writeFile(o, string(f.Outputs[inv.Stage]))
		} else if o != "" {
			sum := sha256.Sum256([]byte(strings.Join(inv.Args, "\x00")))
			err = writeFile(o, "elf:"+string(sum[:]))
		}
	}
	if err != nil {
		out.ExitCode = -1
		return out, &errors.ToolInvocationError{Stage: inv.Stage, Command: inv.CommandLine(), ExitCode: -1, Err: err}
	}
	return out, nil
}

func (f *FakeToolchain) writeBoot2(path string) error {
	b := make([]byte, f.Boot2Size)
	for i := range b {
		b[i] = byte(i * 3)
	}
	return os.WriteFile(path, b, 0o600)
}

func outputFlag(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

var _ toolchain.Runner = (*FakeToolchain)(nil)
