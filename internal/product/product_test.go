package product_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/artifact"
	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/product"
	"github.com/mrz1836/bootlink/internal/testutil"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

func productConfig(dir string) config.ProductConfig {
	return config.ProductConfig{
		Name:         "RP2040Boot2",
		Build:        []string{"make", "boot2"},
		Dir:          dir,
		ArtifactDir:  filepath.Join(dir, "build"),
		ArtifactKind: "static_library",
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := productConfig(dir)
	fake := testutil.NewFakeToolchain()
	fake.Builds["boot2:build"] = filepath.Join(p.ArtifactDir, "libRP2040Boot2.a")

	res, err := product.NewBuilder(fake).Build(context.Background(), "boot2:build", p)
	require.NoError(t, err)
	assert.Equal(t, "RP2040Boot2", res.Product)
	assert.Equal(t, filepath.Join(p.ArtifactDir, "libRP2040Boot2.a"), res.Artifact.Path)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "make", calls[0].Tool)
	assert.Equal(t, []string{"boot2"}, calls[0].Args)
	assert.Equal(t, dir, calls[0].Dir)
}

func TestBuild_CommandFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := testutil.NewFakeToolchain()
	fake.FailStage = "app:build"
	fake.FailStderr = "App.swift:3: error: cannot find 'led' in scope"

	p := productConfig(dir)
	p.Name = "App"
	_, err := product.NewBuilder(fake).Build(context.Background(), "app:build", p)

	var buildErr *errors.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "App", buildErr.Product)
	assert.Contains(t, buildErr.Log, "cannot find 'led'")
	assert.ErrorIs(t, err, errors.ErrBuildFailed)
	assert.ErrorIs(t, err, errors.ErrToolInvocation)
}

func TestBuild_AmbiguousArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := productConfig(dir)
	require.NoError(t, os.MkdirAll(p.ArtifactDir, 0o750))
	for _, name := range []string{"liba.a", "libb.a"} {
		require.NoError(t, os.WriteFile(filepath.Join(p.ArtifactDir, name), nil, 0o600))
	}

	_, err := product.NewBuilder(testutil.NewFakeToolchain()).Build(context.Background(), "boot2:build", p)
	var cardErr *errors.ArtifactCardinalityError
	require.ErrorAs(t, err, &cardErr)
	assert.Len(t, cardErr.Paths, 2)
}

func TestBuild_BadKind(t *testing.T) {
	t.Parallel()

	p := productConfig(t.TempDir())
	p.ArtifactKind = "dylib"
	_, err := product.NewBuilder(&toolchain.PlanRunner{}).Build(context.Background(), "boot2:build", p)
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := productConfig(dir)
	a := product.Placeholder(p)
	assert.Equal(t, filepath.Join(p.ArtifactDir, "libRP2040Boot2.a"), a.Path)

	p.ArtifactKind = "object_file"
	a = product.Placeholder(p)
	assert.Equal(t, filepath.Join(p.ArtifactDir, "RP2040Boot2.o"), a.Path)
	assert.Equal(t, artifact.ObjectFile, a.Kind)
}
