// Package pipeline assembles the final firmware image: it builds and
// checksums the second-stage bootloader, builds the application and links
// both into one executable.
//
// Stages run strictly in order and the first failure halts the run. Every
// stage declares the files it reads; a missing input fails the stage before
// any tool is started.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/artifact"
	"github.com/mrz1836/bootlink/internal/clock"
	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/flock"
	"github.com/mrz1836/bootlink/internal/product"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

// Stage names, in execution order.
const (
	StageBoot2Build    = "boot2:build"
	StageBoot2Extract  = "boot2:extract"
	StageBoot2Link     = "boot2:link"
	StageBoot2Objcopy  = "boot2:objcopy"
	StageBoot2Checksum = "boot2:checksum"
	StageBoot2Assemble = "boot2:assemble"
	StageAppBuild      = "app:build"
	StageAppLink       = "app:link"
	StageAppExport     = "app:export"
)

// StageStatus is reported to the progress callback.
type StageStatus string

// Stage statuses.
const (
	StatusStarting  StageStatus = "starting"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
)

// ProgressFunc is called when a stage starts and when it finishes.
type ProgressFunc func(stage string, status StageStatus)

// Stage is one step of the pipeline.
type Stage struct {
	Name string
	// Inputs returns the files the stage reads. It is evaluated just before
	// the stage runs because some inputs are discovered by earlier stages.
	Inputs func() []string
	// Outputs lists the files the stage is expected to write, when known
	// upfront. They are removed before the stage runs.
	Outputs []string
	Run     func(ctx context.Context, sr *StageResult) error
}

// StageResult records what one stage did.
type StageResult struct {
	Name        string                 `json:"name"`
	Status      StageStatus            `json:"status"`
	DurationMs  int64                  `json:"duration_ms"`
	Invocations []toolchain.Invocation `json:"invocations,omitempty"`
	Artifacts   []artifact.Artifact    `json:"artifacts,omitempty"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	RunID      string        `json:"run_id"`
	DryRun     bool          `json:"dry_run,omitempty"`
	Executable string        `json:"executable"`
	SHA256     string        `json:"sha256,omitempty"`
	Exports    []string      `json:"exports,omitempty"`
	Stages     []StageResult `json:"stages"`
	DurationMs int64         `json:"duration_ms"`
}

// Options configure a Pipeline.
type Options struct {
	// Runner executes tools. Default: toolchain.ExecRunner, or a
	// toolchain.PlanRunner when DryRun is set.
	Runner toolchain.Runner

	// DryRun records the invocations without running anything or touching
	// the output directory.
	DryRun bool

	// Progress receives stage status updates.
	Progress ProgressFunc

	// LiveOutput streams tool output when the default ExecRunner is used.
	LiveOutput io.Writer

	// Clock times the stages. Default: clock.RealClock
	Clock clock.Clock
}

// Pipeline links one firmware image as described by a Config.
type Pipeline struct {
	cfg      *config.Config
	runner   toolchain.Runner
	builder  *product.Builder
	progress ProgressFunc
	dryRun   bool
	clock    clock.Clock

	paths paths
	st    state
}

// state carries the artifacts discovered while the pipeline runs.
type state struct {
	boot2Lib       string
	boot2Extracted string
	boot2Object    string
	appArtifact    string
	sha256         string
	exports        []string
}

// New returns a pipeline for cfg. cfg must have passed config.Validate.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.ErrConfigNil
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	r := opts.Runner
	if r == nil {
		if opts.DryRun {
			r = &toolchain.PlanRunner{}
		} else {
			r = &toolchain.ExecRunner{LiveOutput: opts.LiveOutput}
		}
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Pipeline{
		cfg:      cfg,
		runner:   r,
		builder:  product.NewBuilder(r),
		progress: opts.Progress,
		dryRun:   opts.DryRun,
		clock:    c,
		paths:    newPaths(cfg),
	}, nil
}

// Executable returns the path of the final linked executable.
func (p *Pipeline) Executable() string {
	return p.paths.executable
}

// Stages returns the stages in execution order.
func (p *Pipeline) Stages() []Stage {
	stages := append(p.boot2Stages(), p.appStages()...)
	if len(p.cfg.Output.Formats) > 0 {
		stages = append(stages, p.exportStage())
	}
	return stages
}

// Run executes every stage in order and stops at the first failure, which is
// returned as *errors.StageError. The returned Result is non-nil even on
// failure and lists the stages that ran.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Str("component", "pipeline").Logger()
	ctx = logger.WithContext(ctx)

	start := p.clock.Now()
	p.st = state{}
	res := &Result{RunID: runID, DryRun: p.dryRun, Executable: p.paths.executable}

	if !p.dryRun {
		lock, err := flock.Acquire(p.cfg.Output.Dir)
		if err != nil {
			return res, &errors.StageError{Stage: "lock", Err: err}
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn().Err(err).Msg("failed to release output lock")
			}
		}()
		if err := p.paths.create(); err != nil {
			return res, &errors.StageError{Stage: "prepare", Err: err}
		}
	}

	logger.Info().
		Bool("dry_run", p.dryRun).
		Str("output_dir", p.cfg.Output.Dir).
		Msg("pipeline starting")

	for _, s := range p.Stages() {
		sr, err := p.runStage(ctx, s)
		res.Stages = append(res.Stages, *sr)
		if err != nil {
			res.DurationMs = clock.Since(p.clock, start).Milliseconds()
			return res, err
		}
	}

	res.SHA256 = p.st.sha256
	res.Exports = p.st.exports
	res.DurationMs = clock.Since(p.clock, start).Milliseconds()
	logger.Info().
		Str("executable", res.Executable).
		Str("sha256", res.SHA256).
		Int64("duration_ms", res.DurationMs).
		Msg("pipeline completed")
	return res, nil
}

func (p *Pipeline) runStage(ctx context.Context, s Stage) (*StageResult, error) {
	log := zerolog.Ctx(ctx).With().Str("stage", s.Name).Logger()
	ctx = log.WithContext(ctx)
	sr := &StageResult{Name: s.Name, Status: StatusStarting}

	p.report(s.Name, StatusStarting)
	start := p.clock.Now()

	err := ctx.Err()
	if err == nil && !p.dryRun && s.Inputs != nil {
		err = checkInputs(s.Inputs())
	}
	if err == nil && !p.dryRun {
		err = removeOutputs(s.Outputs)
	}
	if err == nil {
		err = s.Run(ctx, sr)
	}
	sr.DurationMs = clock.Since(p.clock, start).Milliseconds()

	if err != nil {
		sr.Status = StatusFailed
		p.report(s.Name, StatusFailed)
		stageErr := newStageError(s.Name, err)
		log.Error().Err(err).Str("command", stageErr.Command).Msg("stage failed")
		return sr, stageErr
	}
	sr.Status = StatusCompleted
	p.report(s.Name, StatusCompleted)
	log.Debug().Int64("duration_ms", sr.DurationMs).Msg("stage completed")
	return sr, nil
}

func (p *Pipeline) report(stage string, status StageStatus) {
	if p.progress != nil {
		p.progress(stage, status)
	}
}

// exec runs inv and records it in sr.
func (p *Pipeline) exec(ctx context.Context, sr *StageResult, inv toolchain.Invocation) (*toolchain.Output, error) {
	inv.Stage = sr.Name
	sr.Invocations = append(sr.Invocations, inv)
	return p.runner.Run(ctx, inv)
}

// expect verifies that a stage produced path, or returns a placeholder in a dry run.
func (p *Pipeline) expect(sr *StageResult, path string, kind artifact.Kind) error {
	a := artifact.Artifact{Path: path, Kind: kind}
	if !p.dryRun {
		var err error
		if a, err = artifact.Expect(path, kind); err != nil {
			return err
		}
	}
	sr.Artifacts = append(sr.Artifacts, a)
	return nil
}

func checkInputs(inputs []string) error {
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil || info.IsDir() {
			return errors.Wrapf(errors.ErrMissingInput, "%s", in)
		}
	}
	return nil
}

// removeOutputs deletes what an earlier run left at paths, so a tool that
// exits 0 without writing its output is caught instead of reusing it.
func removeOutputs(paths []string) error {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "remove stale %s", path)
		}
	}
	return nil
}

// newStageError wraps err with the failing command line and its diagnostic output.
func newStageError(stage string, err error) *errors.StageError {
	se := &errors.StageError{Stage: stage, Err: err}

	var invErr *errors.ToolInvocationError
	if stderrors.As(err, &invErr) {
		se.Command = invErr.Command
		se.Output = invErr.Stderr
	}
	var buildErr *errors.BuildError
	if stderrors.As(err, &buildErr) {
		se.Output = buildErr.Log
	}
	var linkErr *errors.LinkError
	if stderrors.As(err, &linkErr) {
		se.Output = linkErr.Output
	}
	return se
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path) //#nosec G304 -- path is the pipeline's own output
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
