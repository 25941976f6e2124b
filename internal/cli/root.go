// Package cli provides the command-line interface for bootlink.
package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed. Before that it returns a zero-value logger that discards output.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// newRootCmd creates and returns the root command for the bootlink CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "bootlink",
		Short: "Link RP2040 firmware with a checksummed second-stage bootloader",
		Long: `bootlink builds the boot2 second-stage bootloader, pads it to 252 bytes,
appends the CRC32 the RP2040 boot ROM checks, and links it together with the
application into one flashable executable.

Commands:
  • link      run the whole pipeline from bootlink.yaml
  • checksum  pad and checksum a raw boot2 binary into an assembly listing
  • verify    check the boot2 of a linked executable or listing
  • export    convert a linked executable to bin, hex or uf2
  • doctor    check that clang, ar and objcopy are installed`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			flags.Output = v.GetString("output")
			flags.Verbose = v.GetBool("verbose")
			flags.Quiet = v.GetBool("quiet")

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}
			// subcommands read --output from the flag set; carry BOOTLINK_OUTPUT over
			if err := cmd.Root().PersistentFlags().Set("output", flags.Output); err != nil {
				return err
			}

			logger := InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Lock()
			globalLogger = logger
			globalLoggerMu.Unlock()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logger.WithContext(ctx))
			return nil
		},
		// errors are rendered by Execute in the selected output format
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddLinkCommand(cmd, flags)
	AddChecksumCommand(cmd, flags)
	AddVerifyCommand(cmd, flags)
	AddExportCommand(cmd, flags)
	AddDoctorCommand(cmd, flags)
	AddConfigCommand(cmd, flags)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// A failing command's error is printed to stderr before it is returned;
// use ExitCodeForError to map it to the process exit code.
func Execute(ctx context.Context, info BuildInfo) error {
	defer CloseLogFile()

	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	return run(ctx, newRootCmd(flags, info), flags)
}

// run executes cmd and reports its error, if any.
func run(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags) error {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd, flags, err)
	}
	return err
}

// reportError prints err once, in the output format the user asked for.
func reportError(cmd *cobra.Command, flags *GlobalFlags, err error) {
	w := cmd.ErrOrStderr()
	if w == nil {
		w = os.Stderr
	}
	format := flags.Output
	if !IsValidOutputFormat(format) {
		format = OutputText
	}
	tui.NewOutput(w, format).Error(err)
}
