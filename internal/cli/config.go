package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/tui"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, _ *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bootlink configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	root.AddCommand(cmd)
}

func newConfigShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, ~/.bootlink/config.yaml,
bootlink.yaml and BOOTLINK_* environment variables. Relative paths are shown
resolved. The configuration is printed even when it would not validate.

Examples:
  bootlink config show
  bootlink config show --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd, cmd.OutOrStdout(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "project config file (default ./bootlink.yaml)")
	return cmd
}

func runConfigShow(ctx context.Context, cmd *cobra.Command, w io.Writer, configPath string) error {
	outputFormat := cmd.Flag("output").Value.String()

	cfg, err := config.LoadPartial(ctx, configPath)
	if err != nil {
		return err
	}

	if outputFormat == OutputJSON {
		return tui.NewOutput(w, outputFormat).JSON(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
