package checksum

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/errors"
)

// Sealed describes the result of sealing one boot2 binary.
type Sealed struct {
	Image      []byte
	Checksum   uint32
	PayloadLen int
}

// SealFile reads the raw boot2 binary at in, seals it and writes the
// assembly listing to out. No output is written when the input is too large.
func SealFile(ctx context.Context, in, out string) (*Sealed, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "checksum").Logger()

	raw, err := os.ReadFile(in) //#nosec G304 -- path comes from the pipeline or the command line
	if err != nil {
		return nil, errors.Wrap(err, "read boot2 binary")
	}
	img, err := Seal(raw)
	if err != nil {
		return nil, err
	}
	source, err := filepath.Abs(in)
	if err != nil {
		source = in
	}
	text, err := EmitListing(img, source)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(out, text); err != nil {
		return nil, errors.Wrap(err, "write boot2 listing")
	}
	s := &Sealed{
		Image:      img,
		Checksum:   Sum(img[:MaxPayload]),
		PayloadLen: len(raw),
	}
	log.Debug().
		Str("input", in).
		Str("output", out).
		Int("payload_bytes", s.PayloadLen).
		Int("padding_bytes", MaxPayload-s.PayloadLen).
		Str("crc", fmt.Sprintf("0x%08x", s.Checksum)).
		Msg("boot2 sealed")
	return s, nil
}

// writeFileAtomic writes data to a temporary file next to name and renames it
// into place, so readers never see a partial listing.
func writeFileAtomic(name string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // listing is build output, not a secret
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, name)
}
