package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/artifact"
	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/elfimage"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

func (p *Pipeline) appStages() []Stage {
	return []Stage{
		{
			Name: StageAppBuild,
			Run:  p.buildApp,
		},
		{
			Name: StageAppLink,
			Inputs: func() []string {
				in := []string{p.cfg.App.LinkerScript}
				in = append(in, p.cfg.App.RuntimeObjects...)
				return append(in, p.st.appArtifact, p.st.boot2Object)
			},
			Outputs: []string{p.paths.executable},
			Run:     p.linkApp,
		},
	}
}

func (p *Pipeline) exportStage() Stage {
	return Stage{
		Name:   StageAppExport,
		Inputs: func() []string { return []string{p.paths.executable} },
		Run:    p.exportApp,
	}
}

func (p *Pipeline) buildApp(ctx context.Context, sr *StageResult) error {
	a, err := p.buildProduct(ctx, sr, p.cfg.App.ProductConfig)
	if err != nil {
		return err
	}
	p.st.appArtifact = a.Path
	return nil
}

// LinkArgs returns the clang arguments of the final link. Runtime objects
// precede the app artifact so their symbols win over archive members.
func (p *Pipeline) LinkArgs(appArtifact, boot2Object string) []string {
	args := CommonFlags(p.cfg.Target)
	args = append(args, FinalLinkFlags(p.cfg.App)...)
	args = append(args, p.cfg.App.RuntimeObjects...)
	return append(args, appArtifact, boot2Object, "-o", p.paths.executable)
}

func (p *Pipeline) linkApp(ctx context.Context, sr *StageResult) error {
	inv := toolchain.Invocation{
		Tool: p.cfg.Toolchain.Clang,
		Args: p.LinkArgs(p.st.appArtifact, p.st.boot2Object),
	}
	out, err := p.exec(ctx, sr, inv)
	if err != nil {
		return &errors.LinkError{Product: p.cfg.App.Name, Output: out.Combined(), Err: err}
	}
	if err := p.expect(sr, p.paths.executable, artifact.ELFImage); err != nil {
		return err
	}
	if p.dryRun {
		return nil
	}

	sum, err := fileSHA256(p.paths.executable)
	if err != nil {
		return errors.Wrapf(err, "hash %s", p.paths.executable)
	}
	p.st.sha256 = sum
	zerolog.Ctx(ctx).Info().
		Str("executable", p.paths.executable).
		Str("sha256", sum).
		Msg("final image linked")
	return nil
}

func (p *Pipeline) exportApp(ctx context.Context, sr *StageResult) error {
	for _, format := range p.cfg.Output.Formats {
		out, err := elfimage.DefaultOutput(p.paths.executable, format)
		if err != nil {
			return err
		}
		if !p.dryRun {
			if err := elfimage.Export(ctx, p.paths.executable, format, out); err != nil {
				return err
			}
		}
		kind := artifact.FlashImage
		if format == constants.FormatBin {
			kind = artifact.RawBinary
		}
		sr.Artifacts = append(sr.Artifacts, artifact.Artifact{Path: out, Kind: kind})
		p.st.exports = append(p.st.exports, out)
	}
	return nil
}
