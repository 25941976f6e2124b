// Package artifact models the files passed between pipeline stages.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// Kind classifies a build artifact.
type Kind int

// Artifact kinds produced and consumed by the pipeline.
const (
	StaticLibrary Kind = iota
	ObjectFile
	ELFImage
	RawBinary
	AssemblyText
	FlashImage
)

var kindInfo = [...]struct { //nolint:gochecknoglobals // read-only lookup table
	name string
	exts []string
}{
	StaticLibrary: {"static library", []string{".a"}},
	ObjectFile:    {"object file", []string{".o", ".obj"}},
	ELFImage:      {"ELF image", []string{constants.ExtELF}},
	RawBinary:     {"raw binary", []string{constants.ExtBin}},
	AssemblyText:  {"assembly listing", []string{".s", ".S"}},
	FlashImage:    {"flash image", []string{constants.ExtHex, constants.ExtUF2}},
}

func (k Kind) String() string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].name
	}
	return "unknown"
}

// Extensions returns the file extensions that identify k.
func (k Kind) Extensions() []string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].exts
	}
	return nil
}

// Matches reports whether path has one of k's extensions.
func (k Kind) Matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range k.Extensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseKind maps a configuration value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case constants.ArtifactKindStaticLibrary:
		return StaticLibrary, nil
	case constants.ArtifactKindObjectFile:
		return ObjectFile, nil
	}
	return 0, errors.Wrapf(errors.ErrConfigInvalid, "unknown artifact kind %q", s)
}

// Artifact is one file produced by a stage.
type Artifact struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Find returns the regular files directly inside dir that match kind, sorted.
// A missing directory yields no artifacts.
func Find(dir string, kind Kind) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "scan %s", dir)
	}
	var found []Artifact
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if kind.Matches(e.Name()) {
			found = append(found, Artifact{Path: filepath.Join(dir, e.Name()), Kind: kind})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// ExpectOne returns the single artifact in found. Zero or several artifacts
// fail with *errors.ArtifactCardinalityError; it never picks one silently.
func ExpectOne(kind Kind, found []Artifact) (Artifact, error) {
	if len(found) == 1 {
		return found[0], nil
	}
	paths := make([]string, len(found))
	for i, a := range found {
		paths[i] = a.Path
	}
	return Artifact{}, &errors.ArtifactCardinalityError{Kind: kind.String(), Paths: paths}
}

// FindOne combines Find and ExpectOne.
func FindOne(dir string, kind Kind) (Artifact, error) {
	found, err := Find(dir, kind)
	if err != nil {
		return Artifact{}, err
	}
	return ExpectOne(kind, found)
}

// Expect checks that path exists as a regular file and returns it as an
// artifact of kind. A missing file is a cardinality failure of zero.
func Expect(path string, kind Kind) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Artifact{}, &errors.ArtifactCardinalityError{Kind: kind.String()}
	}
	return Artifact{Path: path, Kind: kind}, nil
}
