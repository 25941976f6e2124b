// Package errors provides centralized error handling for bootlink.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application, plus typed errors that carry the details a user
// needs to diagnose a failed build. Every typed error wraps exactly one sentinel,
// so callers can use errors.Is() for the category and errors.As() for the details.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrUsage indicates a malformed command-line invocation.
	ErrUsage = errors.New("usage error")

	// ErrImageTooLarge indicates the boot2 binary exceeds the maximum
	// pre-checksum length.
	ErrImageTooLarge = errors.New("boot image too large")

	// ErrToolInvocation indicates that an external tool exited non-zero
	// or could not be started.
	ErrToolInvocation = errors.New("tool invocation failed")

	// ErrBuildFailed indicates that a product's build step failed.
	ErrBuildFailed = errors.New("product build failed")

	// ErrArtifactCardinality indicates that a stage expected exactly one
	// artifact of a kind and found zero or several.
	ErrArtifactCardinality = errors.New("unexpected artifact count")

	// ErrLinkFailed indicates that the final link of the application failed.
	ErrLinkFailed = errors.New("link failed")

	// ErrMissingInput indicates that a stage was about to run without one of
	// its declared input files.
	ErrMissingInput = errors.New("stage input missing")

	// ErrOutputLocked indicates that another pipeline run holds the output directory.
	ErrOutputLocked = errors.New("output directory locked")

	// ErrInvalidListing indicates that a checksummed assembly listing could not be parsed.
	ErrInvalidListing = errors.New("invalid boot2 listing")

	// ErrBoot2Invalid indicates that a linked image carries no valid checksummed boot2.
	ErrBoot2Invalid = errors.New("invalid boot2 image")

	// ErrUnsupportedFormat indicates an unknown export format was requested.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrNoLoadableSections indicates an ELF file has nothing to export.
	ErrNoLoadableSections = errors.New("no loadable sections")

	// ErrOverlappingSections indicates two loadable sections share load addresses.
	ErrOverlappingSections = errors.New("overlapping sections")

	// ErrConfigNil indicates a nil configuration was passed where one is required.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates the configuration failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvalidOutputFormat indicates an invalid --output flag value was provided.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrMissingRequiredTools indicates one or more toolchain programs are not installed.
	ErrMissingRequiredTools = errors.New("required tools are missing")

	// ErrInterrupted indicates the run was stopped by SIGINT or SIGTERM.
	ErrInterrupted = errors.New("interrupted")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
