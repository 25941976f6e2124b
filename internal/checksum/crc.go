// Package checksum implements the RP2040 boot2 checksum contract.
//
// The boot ROM loads the first 256 bytes of flash and only jumps into them if
// the trailing four bytes hold the CRC32 of the first 252 bytes, computed with
// these parameters:
//
//   - Polynomial: 0x04c11db7
//   - Input reflection: no
//   - Output reflection: no
//   - Initial value: 0xffffffff
//   - Final XOR: 0x00000000
//   - Checksum stored as a little-endian integer at the end of the image
//
// This is CRC-32/MPEG-2, not the reflected CRC-32 of hash/crc32. The
// parameters are part of the boot contract and are deliberately not
// configurable.
package checksum

import "hash"

// CRC parameters of the boot ROM.
const (
	Polynomial   uint32 = 0x04c11db7
	InitialValue uint32 = 0xffffffff
	XorOut       uint32 = 0x00000000
)

// Size of a CRC32 checksum in bytes.
const Size = 4

// Sum returns the boot ROM checksum of b, computed bit by bit MSB first.
func Sum(b []byte) uint32 {
	crc := InitialValue
	for _, c := range b {
		crc ^= uint32(c) << 24
		for range 8 {
			if crc&(1<<31) != 0 {
				crc = crc<<1 ^ Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc ^ XorOut
}

var table = makeTable()

// makeTable derives the byte-at-a-time table from the bit-serial definition.
func makeTable() *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		crc := uint32(i) << 24
		for range 8 {
			if crc&(1<<31) != 0 {
				crc = crc<<1 ^ Polynomial
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

func update(crc uint32, p []byte) uint32 {
	for _, c := range p {
		crc = crc<<8 ^ table[byte(crc>>24)^c]
	}
	return crc
}

type digest struct {
	crc uint32
}

// New returns a hash.Hash32 computing the boot ROM checksum.
// Its Sum method appends the value in big-endian order like hash/crc32;
// use Serialize for the little-endian image trailer.
func New() hash.Hash32 {
	return &digest{crc: InitialValue}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = InitialValue }

func (d *digest) Write(p []byte) (n int, err error) {
	d.crc = update(d.crc, p)
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return d.crc ^ XorOut }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}
