package pipeline

import (
	"os"
	"path/filepath"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/constants"
)

// paths are the fixed file locations of one pipeline run.
type paths struct {
	intermediates string
	extract       string
	boot2ELF      string
	boot2Bin      string
	boot2Listing  string
	boot2Object   string
	executable    string
}

func newPaths(cfg *config.Config) paths {
	im := cfg.Output.IntermediatesDir()
	return paths{
		intermediates: im,
		extract:       filepath.Join(im, constants.ExtractDir),
		boot2ELF:      filepath.Join(im, constants.Boot2ELFName),
		boot2Bin:      filepath.Join(im, constants.Boot2BinName),
		boot2Listing:  filepath.Join(im, constants.Boot2ListingName),
		boot2Object:   filepath.Join(im, constants.Boot2ObjectName),
		executable:    filepath.Join(cfg.Output.Dir, cfg.App.Name+constants.ExtELF),
	}
}

func (p paths) create() error {
	return os.MkdirAll(p.extract, 0o750)
}
