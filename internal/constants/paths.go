package constants

// Intermediate file names produced by the boot2 sub-pipeline.
const (
	// Boot2ELFName is the boot2 image linked with the boot2 placement script.
	Boot2ELFName = "bs2_default.elf"

	// Boot2BinName is the raw binary dump of Boot2ELFName.
	Boot2BinName = "bs2_default.bin"

	// Boot2ListingName is the padded and checksummed assembly listing.
	Boot2ListingName = "bs2_default_padded_checksummed.s"

	// Boot2ObjectName is the assembled listing handed to the final link.
	Boot2ObjectName = "bs2_default_padded_checksummed.s.o"

	// ExtractDir is the subdirectory of the intermediates directory that archive members are extracted into.
	ExtractDir = "extract"
)

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.bootlink/logs/bootlink.log
	CLILogFileName = "bootlink.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global bootlink configuration file.
	// This file is located in the bootlink home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the name of the project-specific configuration file.
	// This file is located in the project root directory.
	ProjectConfigName = "bootlink.yaml"
)

// Output file extensions.
const (
	// ExtELF is the extension of the final linked executable.
	ExtELF = ".elf"

	// ExtBin is the extension of a flattened raw image.
	ExtBin = ".bin"

	// ExtHex is the extension of an Intel HEX image.
	ExtHex = ".hex"

	// ExtUF2 is the extension of a UF2 image.
	ExtUF2 = ".uf2"
)
