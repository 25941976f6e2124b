package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/tui"
)

// AddDoctorCommand adds the doctor command to the root command.
func AddDoctorCommand(root *cobra.Command, _ *GlobalFlags) {
	root.AddCommand(newDoctorCmd())
}

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured toolchain is installed",
		Long: `Look up clang, ar and objcopy as configured and report their versions.

Exits non-zero when a tool is missing or clang is too old to link for
armv6m.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd, cmd.OutOrStdout(), configPath, nil)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "project config file (default ./bootlink.yaml)")
	return cmd
}

// runDoctor reports tool status. A nil detector uses the real PATH.
func runDoctor(ctx context.Context, cmd *cobra.Command, w io.Writer, configPath string, detector config.ToolDetector) error {
	outputFormat := cmd.Flag("output").Value.String()
	tui.CheckNoColor()
	out := tui.NewOutput(w, outputFormat)

	cfg, err := config.LoadPartial(ctx, configPath)
	if err != nil {
		return err
	}
	if detector == nil {
		detector = config.NewToolDetector(cfg.Toolchain)
	}

	result, err := detector.Detect(ctx)
	if err != nil {
		return err
	}

	if outputFormat == OutputJSON {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(result.Tools))
		for _, t := range result.Tools {
			path := t.Path
			if path == "" {
				path = "-"
			}
			rows = append(rows, []string{t.Name, t.Command, t.Status.String(), t.CurrentVersion, path})
		}
		out.Table([]string{"TOOL", "COMMAND", "STATUS", "VERSION", "PATH"}, rows)
	}

	if result.HasMissingRequired {
		return errors.Wrap(errors.ErrMissingRequiredTools, config.FormatMissingToolsError(result.MissingRequiredTools()))
	}
	if outputFormat != OutputJSON {
		out.Success("All tools installed")
	}
	return nil
}
