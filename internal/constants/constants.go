// Package constants provides centralized constant values used throughout bootlink.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

// Boot image contract enforced by the RP2040 boot ROM.
// The ROM loads 256 bytes from the start of flash and checks that the
// trailing four bytes are the CRC32 of the first 252.
const (
	// Boot2ImageSize is the exact size of the checksummed second-stage loader.
	Boot2ImageSize = 256

	// Boot2ChecksumSize is the number of trailing checksum bytes.
	Boot2ChecksumSize = 4

	// Boot2MaxPayloadSize is the maximum size of the loader before the checksum is appended.
	Boot2MaxPayloadSize = Boot2ImageSize - Boot2ChecksumSize

	// Boot2LoadAddress is the XIP flash address the boot ROM reads boot2 from.
	Boot2LoadAddress = 0x10000000

	// Boot2SectionName is the section that holds the checksummed loader.
	Boot2SectionName = ".boot2"
)

// Assembly listing layout for the checksummed loader.
const (
	// ListingBytesPerRow is the number of byte literals per .byte directive.
	ListingBytesPerRow = 16

	// ListingHeaderPrefix starts the comment line naming the source binary.
	ListingHeaderPrefix = "// Padded and checksummed copy of: "
)

// Link-time constants required by the target.
const (
	// MaxPageSize is the page alignment passed to the linker with -z max-page-size.
	MaxPageSize = 4096

	// UF2FamilyRP2040 is the UF2 family ID of the RP2040.
	UF2FamilyRP2040 = 0xe48bff56

	// DefaultPadByte fills gaps between sections when flattening an image.
	DefaultPadByte = 0xff
)

// Directory names and paths used by bootlink for organizing data.
const (
	// BootlinkHome is the hidden directory name where bootlink stores its data.
	// This directory is created in the user's home directory.
	BootlinkHome = ".bootlink"

	// IntermediatesDir holds the per-run intermediate artifacts inside the output directory.
	IntermediatesDir = "intermediates"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// LockFileName is the lock file taken in the output directory for the duration of a run.
	LockFileName = ".bootlink.lock"
)

// Log rotation defaults for the CLI log file.
const (
	// LogMaxSizeMB is the maximum size of a log file before it is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of a rotated log file.
	LogMaxAgeDays = 28

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Product and output defaults.
const (
	// DefaultBoot2Name names the boot2 product.
	DefaultBoot2Name = "RP2040Boot2"

	// DefaultAppName names the app product and the final executable.
	DefaultAppName = "App"

	// DefaultOutputDir is the output directory relative to the project root.
	DefaultOutputDir = ".build/bootlink"

	// ArtifactKindStaticLibrary selects a *.a product artifact.
	ArtifactKindStaticLibrary = "static_library"

	// ArtifactKindObjectFile selects a *.o product artifact.
	ArtifactKindObjectFile = "object_file"
)

// Export formats.
const (
	FormatBin = "bin"
	FormatHex = "hex"
	FormatUF2 = "uf2"
)
