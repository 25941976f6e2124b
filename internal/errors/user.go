package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// This single source of truth ensures UserMessage and Actionable stay in sync.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Boot image
	// ===================
	{
		err: ErrImageTooLarge,
		info: ErrorInfo{
			Message: "The boot2 binary does not fit in the 252 bytes the boot ROM checks.",
			Action:  "Shrink the second-stage loader or check the boot2 placement script.",
		},
	},
	{
		err: ErrInvalidListing,
		info: ErrorInfo{
			Message: "The checksummed boot2 listing is malformed.",
			Action:  "Regenerate it with 'bootlink checksum <bin> <listing>'.",
		},
	},
	{
		err: ErrBoot2Invalid,
		info: ErrorInfo{
			Message: "The image does not contain a valid checksummed boot2.",
			Action:  "Relink with 'bootlink link'; the boot ROM will not start this image.",
		},
	},

	// ===================
	// Toolchain
	// ===================
	{
		err: ErrToolInvocation,
		info: ErrorInfo{
			Message: "An external tool failed. Its output is shown above.",
			Action:  "Fix the reported problem, or rerun with --verbose to see every command.",
		},
	},
	{
		err: ErrBuildFailed,
		info: ErrorInfo{
			Message: "A product failed to build. The build log is shown above.",
			Action:  "Run the product's build command directly to reproduce the failure.",
		},
	},
	{
		err: ErrLinkFailed,
		info: ErrorInfo{
			Message: "The final link failed. The linker diagnostics are shown above.",
			Action:  "Check the memory map, runtime objects and wrapped symbols in bootlink.yaml.",
		},
	},
	{
		err: ErrArtifactCardinality,
		info: ErrorInfo{
			Message: "A build stage did not produce exactly one expected artifact.",
			Action:  "Clean the product's artifact directory or narrow its artifact pattern.",
		},
	},
	{
		err: ErrMissingInput,
		info: ErrorInfo{
			Message: "A pipeline stage is missing one of its input files.",
			Action:  "Check that the configured linker scripts and runtime objects exist.",
		},
	},
	{
		err: ErrMissingRequiredTools,
		info: ErrorInfo{
			Message: "Required toolchain programs are missing.",
			Action:  "Run 'bootlink doctor' and install the missing tools.",
		},
	},

	// ===================
	// Runtime
	// ===================
	{
		err: ErrOutputLocked,
		info: ErrorInfo{
			Message: "Another bootlink run is using this output directory.",
			Action:  "Wait for it to finish, or pass a different --out directory.",
		},
	},
	{
		err: ErrUnsupportedFormat,
		info: ErrorInfo{
			Message: "The requested output format is not supported.",
			Action:  "Use one of: bin, hex, uf2.",
		},
	},
	{
		err: ErrNoLoadableSections,
		info: ErrorInfo{
			Message: "The ELF file has no loadable sections.",
			Action:  "Check that the file is a linked executable, not an object file.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure bootlink.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalid,
		info: ErrorInfo{
			Message: "The configuration is invalid.",
			Action:  "Run 'bootlink config show' and fix the reported field.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid --output value.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrUsage,
		info: ErrorInfo{
			Message: "Invalid command-line arguments.",
			Action:  "Run the command with --help for usage.",
		},
	},
	{
		err: ErrInterrupted,
		info: ErrorInfo{
			Message: "Interrupted.",
			Action:  "Intermediates may be incomplete; run 'bootlink link' again.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
// Built once from errorInfoEntries during package initialization.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

// buildErrorInfoMap creates a map from the errorInfoEntries slice.
// This is called once during package init for O(1) direct lookups.
func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	// Fast path: O(1) lookup for direct sentinel errors
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Slow path: errors.Is() for wrapped errors
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// This function maps sentinel errors to helpful, actionable messages
// that are suitable for display to end users.
//
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that are not recoverable or have no clear action, the action
// string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
