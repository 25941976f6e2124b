package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/pipeline"
	"github.com/mrz1836/bootlink/internal/testutil"
)

// project is a throwaway project layout with the files the pipeline reads.
type project struct {
	dir string
	cfg *config.Config
}

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Boot2.Build = []string{"make", "boot2"}
	cfg.Boot2.ArtifactDir = "build/boot2"
	cfg.Boot2.LinkerScript = "boot2/boot_stage2.ld"
	cfg.App.Build = []string{"make", "app"}
	cfg.App.ArtifactDir = "build/app"
	cfg.App.LinkerScript = "support/memmap_default.ld"
	cfg.App.RuntimeObjects = []string{"build/crt0.o"}
	cfg.Output.Dir = "out"
	cfg.Resolve(dir)

	touch(t, cfg.Boot2.LinkerScript)
	touch(t, cfg.App.LinkerScript)
	touch(t, cfg.App.RuntimeObjects[0])
	return &project{dir: dir, cfg: cfg}
}

// fake returns a fake toolchain whose product builds write into the project.
func (p *project) fake() *testutil.FakeToolchain {
	f := testutil.NewFakeToolchain()
	f.Builds[pipeline.StageBoot2Build] = filepath.Join(p.cfg.Boot2.ArtifactDir, "libRP2040Boot2.a")
	f.Builds[pipeline.StageAppBuild] = filepath.Join(p.cfg.App.ArtifactDir, "libApp.a")
	return f
}

func (p *project) intermediate(name string) string {
	return filepath.Join(p.cfg.Output.IntermediatesDir(), name)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}
