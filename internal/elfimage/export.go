package elfimage

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// ExtensionFor returns the file extension of an export format.
func ExtensionFor(format string) (string, error) {
	switch format {
	case constants.FormatBin:
		return constants.ExtBin, nil
	case constants.FormatHex:
		return constants.ExtHex, nil
	case constants.FormatUF2:
		return constants.ExtUF2, nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedFormat, "%q", format)
}

// DefaultOutput returns elfPath with its extension replaced for format.
func DefaultOutput(elfPath, format string) (string, error) {
	ext, err := ExtensionFor(format)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(elfPath, filepath.Ext(elfPath)) + ext, nil
}

// Export converts the executable at elfPath into format and writes it to out.
func Export(ctx context.Context, elfPath, format, out string) error {
	if _, err := ExtensionFor(format); err != nil {
		return err
	}
	ss, err := ReadELF(elfPath)
	if err != nil {
		return err
	}

	f, err := os.Create(out) //#nosec G304 -- output path is chosen by the user or derived from the ELF path
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	w := bufio.NewWriter(f)

	switch format {
	case constants.FormatBin:
		_, err = ss.Flatten(w, constants.DefaultPadByte)
	case constants.FormatHex:
		err = WriteHex(w, ss)
	case constants.FormatUF2:
		err = WriteUF2(w, ss, constants.UF2FamilyRP2040)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return errors.Wrapf(err, "export %s", format)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "elfimage").
		Str("format", format).
		Str("output", out).
		Int("sections", len(ss)).
		Msg("image exported")
	return nil
}
