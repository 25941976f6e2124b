package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/clock"
	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/flock"
	"github.com/mrz1836/bootlink/internal/pipeline"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

var allStages = []string{ //nolint:gochecknoglobals // test fixture
	pipeline.StageBoot2Build,
	pipeline.StageBoot2Extract,
	pipeline.StageBoot2Link,
	pipeline.StageBoot2Objcopy,
	pipeline.StageBoot2Checksum,
	pipeline.StageBoot2Assemble,
	pipeline.StageAppBuild,
	pipeline.StageAppLink,
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(nil, pipeline.Options{})
	require.ErrorIs(t, err, errors.ErrConfigNil)

	p := newProject(t)
	p.cfg.App.Build = nil
	_, err = pipeline.New(p.cfg, pipeline.Options{})
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)

	res, err := pl.Run(context.Background())
	require.NoError(t, err)

	exe := filepath.Join(p.cfg.Output.Dir, "App.elf")
	assert.Equal(t, exe, res.Executable)
	assert.Equal(t, exe, pl.Executable())
	assert.FileExists(t, exe)
	assert.Len(t, res.SHA256, 64)
	assert.Len(t, res.RunID, 36)

	names := make([]string, len(res.Stages))
	for i, s := range res.Stages {
		names[i] = s.Name
		assert.Equal(t, pipeline.StatusCompleted, s.Status, s.Name)
	}
	assert.Equal(t, allStages, names)

	// the checksum stage runs in process, so it never shows up as a tool call
	assert.Equal(t, []string{
		pipeline.StageBoot2Build,
		pipeline.StageBoot2Extract,
		pipeline.StageBoot2Link,
		pipeline.StageBoot2Objcopy,
		pipeline.StageBoot2Assemble,
		pipeline.StageAppBuild,
		pipeline.StageAppLink,
	}, fake.Stages())

	listing, err := os.ReadFile(p.intermediate(constants.Boot2ListingName))
	require.NoError(t, err)
	parsed, err := checksum.ParseListing(bytes.NewReader(listing))
	require.NoError(t, err)
	require.NoError(t, checksum.Verify(parsed.Bytes()))
	assert.Equal(t, p.intermediate(constants.Boot2BinName), parsed.Source)
}

func TestRun_InvocationShapes(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())
	require.NoError(t, err)

	byStage := map[string][]toolchain.Invocation{}
	for _, c := range fake.Calls() {
		byStage[c.Stage] = append(byStage[c.Stage], c)
	}

	build := byStage[pipeline.StageBoot2Build][0]
	assert.Equal(t, "make", build.Tool)
	assert.Equal(t, []string{"boot2"}, build.Args)
	assert.Equal(t, p.dir, build.Dir)

	lib := filepath.Join(p.cfg.Boot2.ArtifactDir, "libRP2040Boot2.a")
	extract := byStage[pipeline.StageBoot2Extract]
	require.Len(t, extract, 2)
	assert.Equal(t, []string{"t", lib}, extract[0].Args)
	assert.Equal(t, []string{"x", lib, "compile_time_choice.S.o"}, extract[1].Args)
	assert.Equal(t, p.intermediate(constants.ExtractDir), extract[1].Dir)

	objcopy := byStage[pipeline.StageBoot2Objcopy][0]
	assert.Equal(t, "objcopy", objcopy.Tool)
	assert.Equal(t, []string{
		"-Obinary",
		p.intermediate(constants.Boot2ELFName),
		p.intermediate(constants.Boot2BinName),
	}, objcopy.Args)

	link := byStage[pipeline.StageAppLink][0]
	assert.Equal(t, "clang", link.Tool)
	n := len(link.Args)
	assert.Equal(t, []string{
		filepath.Join(p.dir, "build", "crt0.o"),
		filepath.Join(p.cfg.App.ArtifactDir, "libApp.a"),
		p.intermediate(constants.Boot2ObjectName),
		"-o",
		filepath.Join(p.cfg.Output.Dir, "App.elf"),
	}, link.Args[n-5:])
	assert.Contains(t, link.Args, "-Wl,--build-id=none")
	assert.Contains(t, link.Args, "--wrap=__aeabi_lmul")
}

func TestRun_FailingBoot2LinkHaltsPipeline(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.FailStage = pipeline.StageBoot2Link
	fake.FailStderr = "ld.lld: error: undefined symbol: _stage2_boot"

	var events []string
	pl, err := pipeline.New(p.cfg, pipeline.Options{
		Runner: fake,
		Progress: func(stage string, status pipeline.StageStatus) {
			events = append(events, stage+"="+string(status))
		},
	})
	require.NoError(t, err)

	res, err := pl.Run(context.Background())
	require.Error(t, err)

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageBoot2Link, stageErr.Stage)
	assert.Contains(t, stageErr.Command, "bs2_default.elf")
	assert.Contains(t, stageErr.Output, "undefined symbol")
	require.ErrorIs(t, err, errors.ErrToolInvocation)

	var invErr *errors.ToolInvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 1, invErr.ExitCode)

	assert.NotContains(t, fake.Stages(), pipeline.StageBoot2Objcopy)
	assert.NotContains(t, fake.Stages(), pipeline.StageAppLink)
	assert.NoFileExists(t, p.intermediate(constants.Boot2BinName))
	assert.NoFileExists(t, p.intermediate(constants.Boot2ListingName))
	assert.NoFileExists(t, filepath.Join(p.cfg.Output.Dir, "App.elf"))

	require.Len(t, res.Stages, 3)
	assert.Equal(t, pipeline.StatusFailed, res.Stages[2].Status)
	assert.Equal(t, "boot2:link=failed", events[len(events)-1])
	assert.Equal(t, []string{
		"boot2:build=starting", "boot2:build=completed",
		"boot2:extract=starting", "boot2:extract=completed",
		"boot2:link=starting", "boot2:link=failed",
	}, events)
}

func TestRun_BuildFailureCarriesLog(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.FailStage = pipeline.StageAppBuild
	fake.FailStderr = "main.c:3: error: expected ';'"

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageAppBuild, stageErr.Stage)
	assert.Contains(t, stageErr.Output, "expected ';'")
	require.ErrorIs(t, err, errors.ErrBuildFailed)

	var buildErr *errors.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "App", buildErr.Product)
}

func TestRun_LinkFailureIsLinkError(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.FailStage = pipeline.StageAppLink
	fake.FailStderr = "ld.lld: error: section '.text' will not fit in region 'FLASH'"

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrLinkFailed)
	var linkErr *errors.LinkError
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, "App", linkErr.Product)
	assert.Contains(t, linkErr.Output, "will not fit")

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Contains(t, stageErr.Command, "App.elf")
	assert.Contains(t, stageErr.Output, "will not fit")
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	run := func() []byte {
		pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: p.fake()})
		require.NoError(t, err)
		res, err := pl.Run(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(res.Executable)
		require.NoError(t, err)
		return data
	}

	first := run()
	listing, err := os.ReadFile(p.intermediate(constants.Boot2ListingName))
	require.NoError(t, err)

	assert.Equal(t, first, run())
	again, err := os.ReadFile(p.intermediate(constants.Boot2ListingName))
	require.NoError(t, err)
	assert.Equal(t, listing, again)
}

func TestRun_OversizedBoot2(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.Boot2Size = 253

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageBoot2Checksum, stageErr.Stage)
	assert.Empty(t, stageErr.Command)

	var sizeErr *errors.SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 253, sizeErr.Actual)
	assert.NoFileExists(t, p.intermediate(constants.Boot2ListingName))
	assert.NotContains(t, fake.Stages(), pipeline.StageBoot2Assemble)
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	require.NoError(t, os.Remove(p.cfg.App.RuntimeObjects[0]))

	fake := p.fake()
	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrMissingInput)
	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageAppLink, stageErr.Stage)
	assert.Contains(t, err.Error(), "crt0.o")
	assert.NotContains(t, fake.Stages(), pipeline.StageAppLink)
}

func TestRun_MissingBoot2LinkerScript(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	require.NoError(t, os.Remove(p.cfg.Boot2.LinkerScript))

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: p.fake()})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrMissingInput)
	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageBoot2Link, stageErr.Stage)
}

func TestRun_ArchiveWithSeveralObjects(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.Members = []string{"boot2_w25q080.S.o", "boot2_generic.S.o", "__.SYMDEF"}

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrArtifactCardinality)
	var cardErr *errors.ArtifactCardinalityError
	require.ErrorAs(t, err, &cardErr)
	assert.Equal(t, []string{"boot2_w25q080.S.o", "boot2_generic.S.o"}, cardErr.Paths)
	assert.NotContains(t, fake.Stages(), pipeline.StageBoot2Link)
}

func TestRun_ProductWithoutArtifact(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	delete(fake.Builds, pipeline.StageBoot2Build)

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrArtifactCardinality)
	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageBoot2Build, stageErr.Stage)
}

func TestRun_StageWithoutOutput(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	fake := p.fake()
	fake.SkipOutputs = []string{pipeline.StageBoot2Objcopy}

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrArtifactCardinality)
	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageBoot2Objcopy, stageErr.Stage)
}

func TestRun_RerunDoesNotReuseStaleOutput(t *testing.T) {
	t.Parallel()

	for _, stage := range []string{
		pipeline.StageBoot2Link,
		pipeline.StageBoot2Objcopy,
		pipeline.StageBoot2Assemble,
		pipeline.StageAppLink,
	} {
		t.Run(stage, func(t *testing.T) {
			t.Parallel()

			p := newProject(t)
			pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: p.fake()})
			require.NoError(t, err)
			_, err = pl.Run(context.Background())
			require.NoError(t, err)

			fake := p.fake()
			fake.SkipOutputs = []string{stage}
			pl, err = pipeline.New(p.cfg, pipeline.Options{Runner: fake})
			require.NoError(t, err)
			_, err = pl.Run(context.Background())

			require.ErrorIs(t, err, errors.ErrArtifactCardinality)
			var stageErr *errors.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, stage, stageErr.Stage)
		})
	}
}

func TestRun_OversizedRerunLeavesNoListing(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: p.fake()})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, p.intermediate(constants.Boot2ListingName))

	fake := p.fake()
	fake.Boot2Size = 253
	pl, err = pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrImageTooLarge)
	assert.NoFileExists(t, p.intermediate(constants.Boot2ListingName))
}

func TestRun_OutputLocked(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	lock, err := flock.Acquire(p.cfg.Output.Dir)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	fake := p.fake()
	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: fake})
	require.NoError(t, err)
	_, err = pl.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrOutputLocked)
	assert.Empty(t, fake.Calls())
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	p.cfg.Output.Formats = []string{"uf2"}
	plan := &toolchain.PlanRunner{}

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: plan, DryRun: true})
	require.NoError(t, err)
	res, err := pl.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Empty(t, res.SHA256)
	assert.Equal(t, []string{filepath.Join(p.cfg.Output.Dir, "App.uf2")}, res.Exports)
	assert.NoDirExists(t, p.cfg.Output.Dir)

	invs := plan.Invocations()
	require.Len(t, invs, 8)
	assert.Equal(t, []string{"x", filepath.Join(p.cfg.Boot2.ArtifactDir, "libRP2040Boot2.a"), "RP2040Boot2.o"}, invs[2].Args)
	assert.Equal(t, pipeline.StageAppLink, invs[7].Stage)
	assert.Equal(t, filepath.Join(p.cfg.App.ArtifactDir, "libApp.a"), invs[7].Args[len(invs[7].Args)-4])
}

func TestRun_DefaultRunnerForDryRun(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	pl, err := pipeline.New(p.cfg, pipeline.Options{DryRun: true})
	require.NoError(t, err)
	res, err := pl.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Stages, len(allStages))
}

func TestRun_LogsCarryRunID(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	pl, err := pipeline.New(p.cfg, pipeline.Options{Runner: p.fake()})
	require.NoError(t, err)
	res, err := pl.Run(ctx)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"run_id":"`+res.RunID+`"`)
	assert.Contains(t, buf.String(), "pipeline completed")
}

func TestRun_StageTimings(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	pl, err := pipeline.New(p.cfg, pipeline.Options{
		Runner: p.fake(),
		Clock:  &clock.Step{Interval: 10 * time.Millisecond},
	})
	require.NoError(t, err)
	res, err := pl.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Stages, 8)
	for _, sr := range res.Stages {
		assert.Equal(t, int64(10), sr.DurationMs, sr.Name)
	}
	// one reading to start the run, two per stage, one to finish
	assert.Equal(t, int64(170), res.DurationMs)
}
