package checksum

import (
	"encoding/binary"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// MaxPayload is the largest boot2 binary the boot ROM will checksum.
const MaxPayload = constants.Boot2MaxPayloadSize

// ImageSize is the size of a padded and checksummed boot2 image.
const ImageSize = constants.Boot2ImageSize

// Pad returns a copy of b zero-extended to MaxPayload bytes.
// It fails with *errors.SizeError if b is longer than MaxPayload.
func Pad(b []byte) ([]byte, error) {
	if len(b) > MaxPayload {
		return nil, &errors.SizeError{Actual: len(b), Max: MaxPayload}
	}
	padded := make([]byte, MaxPayload)
	copy(padded, b)
	return padded, nil
}

// Serialize appends sum to a padded payload in little-endian order and
// returns the ImageSize-byte boot image.
func Serialize(padded []byte, sum uint32) ([]byte, error) {
	if len(padded) != MaxPayload {
		return nil, &errors.SizeError{Actual: len(padded), Max: MaxPayload}
	}
	img := make([]byte, 0, ImageSize)
	img = append(img, padded...)
	return binary.LittleEndian.AppendUint32(img, sum), nil
}

// Seal pads raw, computes its checksum and returns the complete boot image.
func Seal(raw []byte) ([]byte, error) {
	padded, err := Pad(raw)
	if err != nil {
		return nil, err
	}
	return Serialize(padded, Sum(padded))
}

// Verify checks that img is a complete boot image whose trailer matches
// the checksum of its payload.
func Verify(img []byte) error {
	if len(img) != ImageSize {
		return errors.Wrapf(errors.ErrBoot2Invalid, "boot2 is %d bytes, want %d", len(img), ImageSize)
	}
	want := binary.LittleEndian.Uint32(img[MaxPayload:])
	if got := Sum(img[:MaxPayload]); got != want {
		return errors.Wrapf(errors.ErrBoot2Invalid, "checksum %#08x, trailer says %#08x", got, want)
	}
	return nil
}
