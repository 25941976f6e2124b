package elfimage

import (
	"io"

	"github.com/marcinbor85/gohex"

	"github.com/mrz1836/bootlink/internal/errors"
)

// hexLineSize is the number of data bytes per Intel HEX record.
const hexLineSize = 16

// WriteHex writes the sections as Intel HEX records at their load addresses.
func WriteHex(w io.Writer, ss Sections) error {
	ss.SortByPaddr()
	mem := gohex.NewMemory()
	for _, s := range ss {
		if s.Paddr > 0xffffffff {
			return errors.Wrapf(errors.ErrUnsupportedFormat, "section %s above 4 GiB", s.Name)
		}
		if err := mem.AddBinary(uint32(s.Paddr), s.Data); err != nil {
			return errors.Wrapf(errors.ErrOverlappingSections, "section %s: %v", s.Name, err)
		}
	}
	return mem.DumpIntelHex(w, hexLineSize)
}
