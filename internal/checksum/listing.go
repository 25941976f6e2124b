package checksum

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// Listing directives understood by the downstream assembler.
const (
	cpuDirective     = ".cpu cortex-m0plus"
	modeDirective    = ".thumb"
	sectionDirective = `.section .boot2, "ax"`
	byteDirective    = ".byte "
)

// EmitListing renders a boot image as assembler source that places the
// bytes in the .boot2 section, one .byte directive per 16 bytes. The layout
// follows the pad_checksum script of the Pico SDK and must not change: the
// reassembly stage depends on it.
func EmitListing(img []byte, source string) ([]byte, error) {
	if len(img) != ImageSize {
		return nil, &errors.SizeError{Actual: len(img), Max: ImageSize}
	}
	var b bytes.Buffer
	b.WriteString(constants.ListingHeaderPrefix)
	b.WriteString(source)
	b.WriteString("\n\n")
	b.WriteString(cpuDirective + "\n")
	b.WriteString(modeDirective + "\n\n")
	b.WriteString(sectionDirective + "\n\n")
	for row := range chunk(img, constants.ListingBytesPerRow) {
		b.WriteString(byteDirective)
		for i, c := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("0x")
			b.WriteString(hex2(c))
		}
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

func chunk(b []byte, n int) func(yield func([]byte) bool) {
	return func(yield func([]byte) bool) {
		for len(b) > 0 {
			m := min(n, len(b))
			if !yield(b[:m]) {
				return
			}
			b = b[m:]
		}
	}
}

const hexDigits = "0123456789abcdef"

func hex2(c byte) string {
	return string([]byte{hexDigits[c>>4], hexDigits[c&0x0f]})
}

// Listing is a parsed checksummed boot2 listing.
type Listing struct {
	Source  string
	Section string
	Rows    [][]byte
}

// Bytes returns the concatenation of all rows.
func (l *Listing) Bytes() []byte {
	var out []byte
	for _, r := range l.Rows {
		out = append(out, r...)
	}
	return out
}

// ParseListing decodes a listing produced by EmitListing. Rows must appear
// after the section directive and hold 0x-prefixed two-digit hex literals.
func ParseListing(r io.Reader) (*Listing, error) {
	l := new(Listing)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, constants.ListingHeaderPrefix):
			l.Source = strings.TrimPrefix(line, constants.ListingHeaderPrefix)
		case strings.HasPrefix(line, "//"):
		case strings.HasPrefix(line, ".section "):
			l.Section = strings.TrimSpace(strings.SplitN(strings.TrimPrefix(line, ".section "), ",", 2)[0])
		case strings.HasPrefix(line, byteDirective):
			if l.Section == "" {
				return nil, errors.Wrapf(errors.ErrInvalidListing, "line %d: .byte before .section", lineNo)
			}
			row, err := parseRow(strings.TrimPrefix(line, byteDirective))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidListing, "line %d: %s", lineNo, err.Error())
			}
			l.Rows = append(l.Rows, row)
		case strings.HasPrefix(line, "."):
			// .cpu, .thumb and similar mode directives
		default:
			return nil, errors.Wrapf(errors.ErrInvalidListing, "line %d: unexpected %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read listing")
	}
	if l.Section != constants.Boot2SectionName {
		return nil, errors.Wrapf(errors.ErrInvalidListing, "section %q, want %q", l.Section, constants.Boot2SectionName)
	}
	return l, nil
}

func parseRow(s string) ([]byte, error) {
	fields := strings.Split(s, ",")
	row := make([]byte, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if len(f) != 4 || !strings.HasPrefix(f, "0x") {
			return nil, fmt.Errorf("bad byte literal %q", f) //nolint:err113 // wrapped by caller
		}
		v, err := strconv.ParseUint(f[2:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte literal %q: %w", f, err)
		}
		row = append(row, byte(v))
	}
	return row, nil
}
