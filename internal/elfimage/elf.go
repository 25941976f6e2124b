// Package elfimage reads the loadable contents of a linked executable and
// exports them as flat binary, Intel HEX or UF2 images.
package elfimage

import (
	"debug/elf"
	"io"
	"os"
	"sort"

	"github.com/mrz1836/bootlink/internal/errors"
)

// Section is one loadable section of an ELF file.
type Section struct {
	Name   string
	Vaddr  uint64 // address during execution
	Paddr  uint64 // load address in flash
	Offset uint64 // file offset of the section data
	Data   []byte
}

// Sections is the loadable content of an executable.
type Sections []*Section

// ReadELF reads the allocated PROGBITS sections of the ELF file at name.
// The physical address of each section comes from the PT_LOAD segment that
// contains it. Empty sections are skipped.
func ReadELF(name string) (Sections, error) {
	r, err := os.Open(name) //#nosec G304 -- path is a build output or a command-line argument
	if err != nil {
		return nil, errors.Wrap(err, "open elf")
	}
	defer func() { _ = r.Close() }()

	f, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse elf %s", name)
	}
	defer func() { _ = f.Close() }()

	ss := make(Sections, 0, 16)
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, errors.Wrapf(err, "read section %s", s.Name)
		}
		if len(data) == 0 {
			continue
		}
		paddr := s.Addr
		for _, p := range f.Progs {
			if p.Type != elf.PT_LOAD {
				continue
			}
			if p.Off <= s.Offset && s.Offset < p.Off+p.Filesz {
				paddr = p.Paddr + s.Offset - p.Off
				break
			}
		}
		ss = append(ss, &Section{
			Name:   s.Name,
			Vaddr:  s.Addr,
			Paddr:  paddr,
			Offset: s.Offset,
			Data:   data,
		})
	}
	if len(ss) == 0 {
		return nil, errors.Wrapf(errors.ErrNoLoadableSections, "%s", name)
	}
	return ss, nil
}

// SortByPaddr sorts sections by load address.
func (ss Sections) SortByPaddr() {
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].Paddr < ss[j].Paddr
	})
}

// Base returns the lowest load address.
func (ss Sections) Base() uint64 {
	if len(ss) == 0 {
		return 0
	}
	base := ss[0].Paddr
	for _, s := range ss[1:] {
		base = min(base, s.Paddr)
	}
	return base
}

// Lookup returns the section called name, or nil.
func (ss Sections) Lookup(name string) *Section {
	for _, s := range ss {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Flatten writes the sections to w in load-address order, filling gaps with
// pad. It returns the number of bytes written.
func (ss Sections) Flatten(w io.Writer, pad byte) (int, error) {
	if len(ss) == 0 {
		return 0, nil
	}
	ss.SortByPaddr()
	var (
		n        int
		pa       = ss[0].Paddr
		padCache []byte
	)
	for _, s := range ss {
		if s.Paddr < pa {
			return n, errors.Wrapf(errors.ErrOverlappingSections, "section %s at %#x", s.Name, s.Paddr)
		}
		if gap := int(s.Paddr - pa); gap != 0 {
			m, err := w.Write(padBytes(&padCache, gap, pad))
			n += m
			if err != nil {
				return n, err
			}
			pa += uint64(m)
		}
		m, err := w.Write(s.Data)
		n += m
		if err != nil {
			return n, err
		}
		pa += uint64(m)
	}
	return n, nil
}

// padBytes returns a slice of n bytes equal to b, reusing cache.
func padBytes(cache *[]byte, n int, b byte) []byte {
	if len(*cache) < n {
		*cache = make([]byte, n)
		for i := range *cache {
			(*cache)[i] = b
		}
	}
	return (*cache)[:n]
}
