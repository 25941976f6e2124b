package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"
)

// ELFSection describes one section of a synthetic ELF file.
type ELFSection struct {
	Name string
	Addr uint32
	// Paddr is the load address. Zero means Addr.
	Paddr uint32
	Data  []byte
	// NoAlloc marks the section as not loaded (like debug info).
	NoAlloc bool
}

// WriteELF writes a minimal little-endian ELF32 ARM executable with one
// PT_LOAD segment per allocated section and returns path.
func WriteELF(t testing.TB, path string, sections ...ELFSection) string {
	t.Helper()
	if err := os.WriteFile(path, BuildELF(sections...), 0o600); err != nil {
		t.Fatalf("write elf: %v", err)
	}
	return path
}

// BuildELF returns the bytes of a minimal ELF32 ARM executable.
//
//nolint:gosec // sizes in synthetic test images are tiny
func BuildELF(sections ...ELFSection) []byte {
	const (
		ehsize    = 52
		phentsize = 32
		shentsize = 40
	)

	var loadable int
	for _, s := range sections {
		if !s.NoAlloc {
			loadable++
		}
	}

	// section name table: "\0" + names + ".shstrtab\0"
	shstr := []byte{0}
	nameOff := make([]uint32, len(sections))
	for i, s := range sections {
		nameOff[i] = uint32(len(shstr))
		shstr = append(shstr, s.Name...)
		shstr = append(shstr, 0)
	}
	shstrName := uint32(len(shstr))
	shstr = append(shstr, ".shstrtab\x00"...)

	dataOff := uint32(ehsize + phentsize*loadable)
	offsets := make([]uint32, len(sections))
	off := dataOff
	for i, s := range sections {
		offsets[i] = off
		off += uint32(len(s.Data))
	}
	shstrOff := off
	shOff := shstrOff + uint32(len(shstr))
	for shOff%4 != 0 {
		shOff++
	}

	var buf bytes.Buffer
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_ARM),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     ehsize,
		Shoff:     shOff,
		Ehsize:    ehsize,
		Phentsize: phentsize,
		Phnum:     uint16(loadable),
		Shentsize: shentsize,
		Shnum:     uint16(len(sections) + 2),
		Shstrndx:  uint16(len(sections) + 1),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	_ = binary.Write(&buf, binary.LittleEndian, &hdr)

	for i, s := range sections {
		if s.NoAlloc {
			continue
		}
		paddr := s.Paddr
		if paddr == 0 {
			paddr = s.Addr
		}
		_ = binary.Write(&buf, binary.LittleEndian, &elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    offsets[i],
			Vaddr:  s.Addr,
			Paddr:  paddr,
			Filesz: uint32(len(s.Data)),
			Memsz:  uint32(len(s.Data)),
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  4,
		})
	}
	for _, s := range sections {
		buf.Write(s.Data)
	}
	buf.Write(shstr)
	for buf.Len() < int(shOff) {
		buf.WriteByte(0)
	}

	_ = binary.Write(&buf, binary.LittleEndian, &elf.Section32{})
	for i, s := range sections {
		flags := uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR)
		if s.NoAlloc {
			flags = 0
		}
		_ = binary.Write(&buf, binary.LittleEndian, &elf.Section32{
			Name:      nameOff[i],
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     flags,
			Addr:      s.Addr,
			Off:       offsets[i],
			Size:      uint32(len(s.Data)),
			Addralign: 1,
		})
	}
	_ = binary.Write(&buf, binary.LittleEndian, &elf.Section32{
		Name:      shstrName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       shstrOff,
		Size:      uint32(len(shstr)),
		Addralign: 1,
	})
	return buf.Bytes()
}
