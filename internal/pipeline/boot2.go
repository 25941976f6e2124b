package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/artifact"
	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/product"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

// boot2Stages builds the boot2 product and turns it into the padded,
// checksummed object the final link consumes.
func (p *Pipeline) boot2Stages() []Stage {
	pp := p.paths
	return []Stage{
		{
			Name: StageBoot2Build,
			Run:  p.buildBoot2,
		},
		{
			Name:   StageBoot2Extract,
			Inputs: func() []string { return []string{p.st.boot2Lib} },
			Run:    p.extractBoot2,
		},
		{
			Name:    StageBoot2Link,
			Inputs:  func() []string { return []string{p.cfg.Boot2.LinkerScript, p.st.boot2Extracted} },
			Outputs: []string{pp.boot2ELF},
			Run:     p.linkBoot2,
		},
		{
			Name:    StageBoot2Objcopy,
			Inputs:  func() []string { return []string{pp.boot2ELF} },
			Outputs: []string{pp.boot2Bin},
			Run:     p.objcopyBoot2,
		},
		{
			Name:    StageBoot2Checksum,
			Inputs:  func() []string { return []string{pp.boot2Bin} },
			Outputs: []string{pp.boot2Listing},
			Run:     p.checksumBoot2,
		},
		{
			Name:    StageBoot2Assemble,
			Inputs:  func() []string { return []string{pp.boot2Listing} },
			Outputs: []string{pp.boot2Object},
			Run:     p.assembleBoot2,
		},
	}
}

func (p *Pipeline) buildBoot2(ctx context.Context, sr *StageResult) error {
	a, err := p.buildProduct(ctx, sr, p.cfg.Boot2.ProductConfig)
	if err != nil {
		return err
	}
	if a.Kind != artifact.StaticLibrary {
		// An object file needs no extraction.
		p.st.boot2Extracted = a.Path
	}
	p.st.boot2Lib = a.Path
	return nil
}

// buildProduct runs a product build, or records it and assumes its artifact in a dry run.
func (p *Pipeline) buildProduct(ctx context.Context, sr *StageResult, pc config.ProductConfig) (artifact.Artifact, error) {
	inv := product.Invocation(sr.Name, pc)
	if p.dryRun {
		if _, err := p.exec(ctx, sr, inv); err != nil {
			return artifact.Artifact{}, err
		}
		a := product.Placeholder(pc)
		sr.Artifacts = append(sr.Artifacts, a)
		return a, nil
	}

	sr.Invocations = append(sr.Invocations, inv)
	res, err := p.builder.Build(ctx, sr.Name, pc)
	if err != nil {
		return artifact.Artifact{}, err
	}
	sr.Artifacts = append(sr.Artifacts, res.Artifact)
	return res.Artifact, nil
}

// extractBoot2 pulls the single object file out of the boot2 archive. The
// archive must hold exactly one object so that no other code lands in the
// 256-byte boot2 region.
func (p *Pipeline) extractBoot2(ctx context.Context, sr *StageResult) error {
	if p.st.boot2Extracted != "" {
		return nil
	}
	ar := p.cfg.Toolchain.Ar
	lib := p.st.boot2Lib

	out, err := p.exec(ctx, sr, toolchain.Invocation{Tool: ar, Args: []string{"t", lib}})
	if err != nil {
		return err
	}
	members := objectMembers(out.Stdout)
	if p.dryRun && len(members) == 0 {
		members = []string{p.cfg.Boot2.Name + ".o"}
	}
	if len(members) != 1 {
		return &errors.ArtifactCardinalityError{Kind: artifact.ObjectFile.String(), Paths: members}
	}

	if !p.dryRun {
		if err := clearObjects(p.paths.extract); err != nil {
			return err
		}
	}
	if _, err := p.exec(ctx, sr, toolchain.Invocation{
		Tool: ar,
		Args: []string{"x", lib, members[0]},
		Dir:  p.paths.extract,
	}); err != nil {
		return err
	}

	obj := artifact.Artifact{Path: filepath.Join(p.paths.extract, members[0]), Kind: artifact.ObjectFile}
	if !p.dryRun {
		if obj, err = artifact.FindOne(p.paths.extract, artifact.ObjectFile); err != nil {
			return err
		}
	}
	sr.Artifacts = append(sr.Artifacts, obj)
	p.st.boot2Extracted = obj.Path

	zerolog.Ctx(ctx).Debug().Str("member", members[0]).Str("object", obj.Path).Msg("boot2 object extracted")
	return nil
}

// objectMembers returns the archive members listed by `ar t` that are object files.
func objectMembers(listing string) []string {
	var members []string
	for _, line := range strings.Split(listing, "\n") {
		name := strings.TrimSpace(line)
		if name != "" && artifact.ObjectFile.Matches(name) {
			members = append(members, name)
		}
	}
	return members
}

// clearObjects removes object files left in dir by an earlier run.
func clearObjects(dir string) error {
	found, err := artifact.Find(dir, artifact.ObjectFile)
	if err != nil {
		return err
	}
	for _, a := range found {
		if err := os.Remove(a.Path); err != nil {
			return errors.Wrapf(err, "remove stale %s", a.Path)
		}
	}
	return nil
}

func (p *Pipeline) linkBoot2(ctx context.Context, sr *StageResult) error {
	args := CommonFlags(p.cfg.Target)
	args = append(args, linker("--script="+p.cfg.Boot2.LinkerScript)...)
	args = append(args, p.st.boot2Extracted, "-o", p.paths.boot2ELF)

	if _, err := p.exec(ctx, sr, toolchain.Invocation{Tool: p.cfg.Toolchain.Clang, Args: args}); err != nil {
		return err
	}
	return p.expect(sr, p.paths.boot2ELF, artifact.ELFImage)
}

func (p *Pipeline) objcopyBoot2(ctx context.Context, sr *StageResult) error {
	inv := toolchain.Invocation{
		Tool: p.cfg.Toolchain.Objcopy,
		Args: []string{"-Obinary", p.paths.boot2ELF, p.paths.boot2Bin},
	}
	if _, err := p.exec(ctx, sr, inv); err != nil {
		return err
	}
	return p.expect(sr, p.paths.boot2Bin, artifact.RawBinary)
}

func (p *Pipeline) checksumBoot2(ctx context.Context, sr *StageResult) error {
	if p.dryRun {
		sr.Artifacts = append(sr.Artifacts, artifact.Artifact{Path: p.paths.boot2Listing, Kind: artifact.AssemblyText})
		return nil
	}
	sealed, err := checksum.SealFile(ctx, p.paths.boot2Bin, p.paths.boot2Listing)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Int("payload_bytes", sealed.PayloadLen).
		Uint32("crc", sealed.Checksum).
		Msg("boot2 checksummed")
	return p.expect(sr, p.paths.boot2Listing, artifact.AssemblyText)
}

func (p *Pipeline) assembleBoot2(ctx context.Context, sr *StageResult) error {
	args := CommonFlags(p.cfg.Target)
	args = append(args, "-c", p.paths.boot2Listing, "-o", p.paths.boot2Object)

	if _, err := p.exec(ctx, sr, toolchain.Invocation{Tool: p.cfg.Toolchain.Clang, Args: args}); err != nil {
		return err
	}
	if err := p.expect(sr, p.paths.boot2Object, artifact.ObjectFile); err != nil {
		return err
	}
	p.st.boot2Object = p.paths.boot2Object
	return nil
}
