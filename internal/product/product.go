// Package product builds the products the link pipeline consumes and
// locates the artifact each build leaves behind.
package product

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/artifact"
	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

// Builder runs product build commands through a toolchain.Runner.
type Builder struct {
	runner toolchain.Runner
}

// NewBuilder returns a Builder that runs build commands with r.
func NewBuilder(r toolchain.Runner) *Builder {
	return &Builder{runner: r}
}

// Result is a finished product build.
type Result struct {
	Product  string
	Artifact artifact.Artifact
	Log      string
}

// Invocation returns the build command of p as a toolchain invocation.
func Invocation(stage string, p config.ProductConfig) toolchain.Invocation {
	return toolchain.Invocation{
		Stage: stage,
		Tool:  p.Build[0],
		Args:  p.Build[1:],
		Dir:   p.Dir,
	}
}

// Build runs p's build command and returns the single artifact of p's
// configured kind found in its artifact directory. A failing command is
// reported as *errors.BuildError carrying the build log.
func (b *Builder) Build(ctx context.Context, stage string, p config.ProductConfig) (*Result, error) {
	kind, err := artifact.ParseKind(p.ArtifactKind)
	if err != nil {
		return nil, err
	}
	if len(p.Build) == 0 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "product %s has no build command", p.Name)
	}

	log := zerolog.Ctx(ctx).With().Str("component", "product").Str("product", p.Name).Logger()
	log.Info().Str("artifact_dir", p.ArtifactDir).Msg("building product")

	out, err := b.runner.Run(ctx, Invocation(stage, p))
	buildLog := out.Combined()
	if err != nil {
		return nil, &errors.BuildError{Product: p.Name, Log: buildLog, Err: err}
	}

	a, err := artifact.FindOne(p.ArtifactDir, kind)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("artifact", a.Path).Msg("product built")
	return &Result{Product: p.Name, Artifact: a, Log: buildLog}, nil
}

// Placeholder returns the artifact a dry run assumes p produces: the real one
// if exactly one exists already, otherwise a name derived from the product.
func Placeholder(p config.ProductConfig) artifact.Artifact {
	kind, err := artifact.ParseKind(p.ArtifactKind)
	if err != nil {
		kind = artifact.StaticLibrary
	}
	if a, err := artifact.FindOne(p.ArtifactDir, kind); err == nil {
		return a
	}
	name := p.Name + kind.Extensions()[0]
	if kind == artifact.StaticLibrary {
		name = "lib" + name
	}
	return artifact.Artifact{Path: filepath.Join(p.ArtifactDir, name), Kind: kind}
}
