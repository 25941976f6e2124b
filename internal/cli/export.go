package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/elfimage"
	"github.com/mrz1836/bootlink/internal/tui"
)

// exportResponse is the JSON output of the export command.
type exportResponse struct {
	Input  string `json:"input"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// AddExportCommand adds the export command to the root command.
func AddExportCommand(root *cobra.Command, _ *GlobalFlags) {
	root.AddCommand(newExportCmd())
}

func newExportCmd() *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export ELF",
		Short: "Convert a linked executable to a flashable image",
		Long: `Write the loadable sections of ELF as a raw binary, Intel HEX or UF2.

The output defaults to ELF with its extension replaced (.bin, .hex, .uf2).
UF2 images carry the RP2040 family ID and can be copied to the BOOTSEL
mass-storage drive.

Examples:
  bootlink export out/Blinky.elf
  bootlink export out/Blinky.elf --format hex --out Blinky.hex`,
		Args: exactArgs(1, "bootlink export ELF [--format bin|hex|uf2] [--out FILE]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd, cmd.OutOrStdout(), args[0], format, outPath)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", constants.FormatUF2, "image format (bin|hex|uf2)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default: ELF with the format's extension)")
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, w io.Writer, elfPath, format, outPath string) error {
	outputFormat := cmd.Flag("output").Value.String()
	tui.CheckNoColor()
	out := tui.NewOutput(w, outputFormat)

	if outPath == "" {
		var err error
		if outPath, err = elfimage.DefaultOutput(elfPath, format); err != nil {
			return err
		}
	}
	if err := elfimage.Export(ctx, elfPath, format, outPath); err != nil {
		return err
	}

	if outputFormat == OutputJSON {
		return out.JSON(exportResponse{Input: elfPath, Format: format, Output: outPath})
	}
	out.Success(fmt.Sprintf("Exported %s", outPath))
	return nil
}
