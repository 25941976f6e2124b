package elfimage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// UF2 block layout. Each 512-byte block carries 256 bytes of payload.
const (
	uf2Magic0          = 0x0a324655
	uf2Magic1          = 0x9e5d5157
	uf2Magic2          = 0x0ab16f30
	uf2FamilyIDPresent = 0x00002000
	uf2PayloadSize     = 256
)

type uf2Block struct {
	Magic0 uint32
	Magic1 uint32
	Flags  uint32
	Addr   uint32
	Len    uint32
	Seq    uint32
	Total  uint32
	Family uint32
	Data   [uf2PayloadSize]byte
	_      [476 - uf2PayloadSize]byte
	Magic2 uint32
}

// uf2Writer splits a flat image into UF2 blocks starting at a base address.
type uf2Writer struct {
	w io.Writer
	b uf2Block
}

func newUF2Writer(w io.Writer, addr, family uint32, size int) *uf2Writer {
	u := &uf2Writer{w: w}
	u.b.Magic0 = uf2Magic0
	u.b.Magic1 = uf2Magic1
	u.b.Flags = uf2FamilyIDPresent
	u.b.Addr = addr
	u.b.Total = uint32((size + uf2PayloadSize - 1) / uf2PayloadSize) //nolint:gosec // image sizes are far below 2^32
	u.b.Family = family
	u.b.Magic2 = uf2Magic2
	return u
}

func (u *uf2Writer) Write(p []byte) (n int, err error) {
	b := &u.b
	for len(p) != 0 {
		m := copy(b.Data[b.Len:], p)
		n += m
		p = p[m:]
		b.Len += uint32(m) //nolint:gosec // m <= 256
		if b.Len == uf2PayloadSize {
			if err = u.emit(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush writes a final partial block, zero padded.
func (u *uf2Writer) Flush() error {
	if u.b.Len == 0 {
		return nil
	}
	clear(u.b.Data[u.b.Len:])
	u.b.Len = uf2PayloadSize
	return u.emit()
}

func (u *uf2Writer) emit() error {
	b := &u.b
	if err := binary.Write(u.w, binary.LittleEndian, b); err != nil {
		return err
	}
	b.Addr += b.Len
	b.Seq++
	b.Len = 0
	return nil
}

// WriteUF2 writes the flattened sections as UF2 blocks for the given family.
// Gaps between sections are filled with the erased-flash value.
func WriteUF2(w io.Writer, ss Sections, family uint32) error {
	if len(ss) == 0 {
		return errors.ErrNoLoadableSections
	}
	var flat bytes.Buffer
	if _, err := ss.Flatten(&flat, constants.DefaultPadByte); err != nil {
		return err
	}
	base := ss.Base()
	if base > 0xffffffff {
		return errors.Wrap(errors.ErrUnsupportedFormat, "load address above 4 GiB")
	}
	u := newUF2Writer(w, uint32(base), family, flat.Len())
	if _, err := u.Write(flat.Bytes()); err != nil {
		return err
	}
	return u.Flush()
}
