package elfimage

import (
	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// Boot2 returns the 256-byte boot2 image of a linked executable: the .boot2
// section if present, otherwise the bytes at the boot2 load address.
func Boot2(ss Sections) ([]byte, error) {
	if s := ss.Lookup(constants.Boot2SectionName); s != nil {
		return s.Data, nil
	}
	for _, s := range ss {
		if s.Paddr != constants.Boot2LoadAddress {
			continue
		}
		if len(s.Data) < constants.Boot2ImageSize {
			return s.Data, nil
		}
		return s.Data[:constants.Boot2ImageSize], nil
	}
	return nil, errors.Wrapf(errors.ErrBoot2Invalid, "no %s section and nothing at %#x",
		constants.Boot2SectionName, constants.Boot2LoadAddress)
}

// VerifyBoot2 checks that the executable at path carries a valid boot2.
// It returns the boot2 image it checked.
func VerifyBoot2(path string) ([]byte, error) {
	ss, err := ReadELF(path)
	if err != nil {
		return nil, err
	}
	img, err := Boot2(ss)
	if err != nil {
		return nil, err
	}
	return img, checksum.Verify(img)
}
