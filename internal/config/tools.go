// Package config provides configuration management for bootlink.
// This file implements the tool detection behind `bootlink doctor`.
package config

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/bootlink/internal/constants"
)

// Pre-compiled regexes for version parsing.
//
//nolint:gochecknoglobals // Package-level compiled regexes
var (
	clangVersionRe   = regexp.MustCompile(`clang version (\d+\.\d+(?:\.\d+)?)`)
	gnuVersionRe     = regexp.MustCompile(`GNU [^\n]*?(\d+\.\d+(?:\.\d+)?)`)
	llvmVersionRe    = regexp.MustCompile(`LLVM version (\d+\.\d+(?:\.\d+)?)`)
	genericVersionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)
)

// ToolStatus represents the installation status of an external tool.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver per json.Unmarshaler interface
type ToolStatus int

const (
	// ToolStatusMissing indicates the tool is not installed.
	ToolStatusMissing ToolStatus = iota

	// ToolStatusInstalled indicates the tool is installed and meets version requirements.
	ToolStatusInstalled

	// ToolStatusOutdated indicates the tool is installed but below the minimum version.
	ToolStatusOutdated
)

// maxVersionSegments is the number of segments in a semantic version (major.minor.patch).
const maxVersionSegments = 3

// String returns a human-readable representation of the tool status.
func (s ToolStatus) String() string {
	switch s {
	case ToolStatusInstalled:
		return "installed"
	case ToolStatusMissing:
		return "missing"
	case ToolStatusOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for human-readable JSON output.
func (s ToolStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for parsing JSON status strings.
func (s *ToolStatus) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "installed":
		*s = ToolStatusInstalled
	case "outdated":
		*s = ToolStatusOutdated
	default:
		*s = ToolStatusMissing
	}
	return nil
}

// Tool represents an external tool the pipeline depends on.
type Tool struct {
	// Name is the tool's role (clang, ar, objcopy).
	Name string `json:"name"`

	// Command is the configured command, a bare name or a path.
	Command string `json:"command"`

	// Path is the resolved executable path, empty when missing.
	Path string `json:"path,omitempty"`

	// Required indicates if the pipeline cannot run without the tool.
	Required bool `json:"required"`

	// MinVersion is the minimum required version, empty for any.
	MinVersion string `json:"min_version,omitempty"`

	// CurrentVersion is the detected installed version.
	CurrentVersion string `json:"current_version,omitempty"`

	// Status is the current installation status.
	Status ToolStatus `json:"status"`

	// InstallHint provides installation instructions for missing tools.
	InstallHint string `json:"install_hint,omitempty"`
}

// ToolDetectionResult holds the results of detecting all tools.
type ToolDetectionResult struct {
	// Tools contains the detection result for each tool, sorted by name.
	Tools []Tool `json:"tools"`

	// HasMissingRequired indicates if any required tools are missing or outdated.
	HasMissingRequired bool `json:"has_missing_required"`
}

// MissingRequiredTools returns the required tools that are missing or outdated.
func (r *ToolDetectionResult) MissingRequiredTools() []Tool {
	var missing []Tool
	for _, tool := range r.Tools {
		if tool.Required && tool.Status != ToolStatusInstalled {
			missing = append(missing, tool)
		}
	}
	return missing
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the PATH.
	LookPath(file string) (string, error)

	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultCommandExecutor implements CommandExecutor using os/exec.
type DefaultCommandExecutor struct{}

// LookPath searches for an executable in the PATH.
func (e *DefaultCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *DefaultCommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //#nosec G204 -- tool names come from configuration
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// ToolDetector detects the installation status of external tools.
type ToolDetector interface {
	// Detect checks all configured tools and returns their status.
	Detect(ctx context.Context) (*ToolDetectionResult, error)
}

// DefaultToolDetector implements ToolDetector for the configured toolchain.
type DefaultToolDetector struct {
	executor  CommandExecutor
	toolchain ToolchainConfig
}

// NewToolDetector creates a detector for tc using the default executor.
func NewToolDetector(tc ToolchainConfig) *DefaultToolDetector {
	return NewToolDetectorWithExecutor(tc, &DefaultCommandExecutor{})
}

// NewToolDetectorWithExecutor creates a detector with a custom executor.
func NewToolDetectorWithExecutor(tc ToolchainConfig, executor CommandExecutor) *DefaultToolDetector {
	return &DefaultToolDetector{
		executor:  executor,
		toolchain: tc,
	}
}

// toolConfig holds the configuration for detecting a specific tool.
type toolConfig struct {
	name        string
	command     string
	versionFlag string
	minVersion  string
	installHint string
	parseFunc   func(output string) string
}

// minClangVersion is the first clang release with usable armv6m-none-eabi
// bare-metal linking through lld.
const minClangVersion = "13.0"

func (d *DefaultToolDetector) toolConfigs() []toolConfig {
	return []toolConfig{
		{
			name:        constants.ToolClang,
			command:     d.toolchain.Clang,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  minClangVersion,
			installHint: "Install LLVM/clang with ARM support (e.g. brew install llvm, apt install clang lld)",
			parseFunc:   parseClangVersion,
		},
		{
			name:        constants.ToolAr,
			command:     d.toolchain.Ar,
			versionFlag: constants.VersionFlagStandard,
			installHint: "Install binutils or llvm-ar and set toolchain.ar",
			parseFunc:   parseBinutilsVersion,
		},
		{
			name:        constants.ToolObjcopy,
			command:     d.toolchain.Objcopy,
			versionFlag: constants.VersionFlagStandard,
			installHint: "Install binutils or llvm-objcopy and set toolchain.objcopy",
			parseFunc:   parseBinutilsVersion,
		},
	}
}

// Detect checks all configured tools concurrently.
func (d *DefaultToolDetector) Detect(ctx context.Context) (*ToolDetectionResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	detectCtx, cancel := context.WithTimeout(ctx, constants.ToolDetectionTimeout)
	defer cancel()

	configs := d.toolConfigs()
	result := &ToolDetectionResult{
		Tools: make([]Tool, 0, len(configs)),
	}
	var resultMu sync.Mutex

	g, gCtx := errgroup.WithContext(detectCtx)
	for _, cfg := range configs {
		g.Go(func() error {
			tool := d.detectTool(gCtx, cfg)
			resultMu.Lock()
			result.Tools = append(result.Tools, tool)
			resultMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to detect tools: %w", err)
	}

	sort.Slice(result.Tools, func(i, j int) bool {
		return result.Tools[i].Name < result.Tools[j].Name
	})
	result.HasMissingRequired = len(result.MissingRequiredTools()) > 0
	return result, nil
}

// detectTool detects a single tool's status.
func (d *DefaultToolDetector) detectTool(ctx context.Context, cfg toolConfig) Tool {
	tool := Tool{
		Name:        cfg.name,
		Command:     cfg.command,
		Required:    true,
		MinVersion:  cfg.minVersion,
		InstallHint: cfg.installHint,
		Status:      ToolStatusMissing,
	}

	path, err := d.executor.LookPath(cfg.command)
	if err != nil {
		return tool
	}
	tool.Path = path

	output, err := d.executor.Run(ctx, path, cfg.versionFlag)
	if err != nil {
		// Tool exists but version command failed - treat as installed without version info
		tool.Status = ToolStatusInstalled
		tool.CurrentVersion = "unknown"
		return tool
	}

	tool.CurrentVersion = cfg.parseFunc(output)
	if tool.CurrentVersion == "" {
		tool.CurrentVersion = "unknown"
		tool.Status = ToolStatusInstalled
		return tool
	}

	tool.Status = ToolStatusInstalled
	if cfg.minVersion != "" && CompareVersions(tool.CurrentVersion, cfg.minVersion) < 0 {
		tool.Status = ToolStatusOutdated
	}
	return tool
}

// parseClangVersion parses "Homebrew clang version 17.0.6" → "17.0.6"
func parseClangVersion(output string) string {
	if matches := clangVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return parseGenericVersion(output)
}

// parseBinutilsVersion handles both GNU binutils and LLVM tool output.
// Examples: "GNU ar (GNU Binutils) 2.42", "LLVM version 17.0.6"
func parseBinutilsVersion(output string) string {
	for _, re := range []*regexp.Regexp{llvmVersionRe, gnuVersionRe} {
		if matches := re.FindStringSubmatch(output); len(matches) >= 2 {
			return matches[1]
		}
	}
	return parseGenericVersion(output)
}

// parseGenericVersion extracts a version number from generic output.
func parseGenericVersion(output string) string {
	if matches := genericVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// CompareVersions compares two semantic versions.
// Returns:
//
//	-1 if current < required
//	 0 if current == required
//	 1 if current > required
func CompareVersions(current, required string) int {
	current = strings.TrimPrefix(current, "v")
	required = strings.TrimPrefix(required, "v")

	currentParts := parseVersionParts(current)
	requiredParts := parseVersionParts(required)

	for i := range maxVersionSegments {
		if currentParts[i] < requiredParts[i] {
			return -1
		}
		if currentParts[i] > requiredParts[i] {
			return 1
		}
	}
	return 0
}

// parseVersionParts parses a version string into [major, minor, patch].
func parseVersionParts(version string) [maxVersionSegments]int {
	var parts [maxVersionSegments]int
	segments := strings.Split(version, ".")

	for i := 0; i < len(segments) && i < maxVersionSegments; i++ {
		numStr := segments[i]
		for j, c := range numStr {
			if c < '0' || c > '9' {
				numStr = numStr[:j]
				break
			}
		}
		if numStr != "" {
			parts[i], _ = strconv.Atoi(numStr)
		}
	}
	return parts
}

// FormatMissingToolsError creates a formatted error message for missing tools.
func FormatMissingToolsError(missing []Tool) string {
	if len(missing) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing required tools:\n\n")
	for _, tool := range missing {
		status := "missing"
		if tool.Status == ToolStatusOutdated {
			status = fmt.Sprintf("outdated (have %s, need %s)", tool.CurrentVersion, tool.MinVersion)
		}
		fmt.Fprintf(&sb, "  • %s (%s): %s\n", tool.Name, tool.Command, status)
		fmt.Fprintf(&sb, "    Install: %s\n\n", tool.InstallHint)
	}
	return sb.String()
}
