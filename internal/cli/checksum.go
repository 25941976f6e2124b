package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/tui"
)

// checksumResponse is the JSON output of the checksum command.
type checksumResponse struct {
	Input        string `json:"input"`
	Output       string `json:"output"`
	PayloadBytes int    `json:"payload_bytes"`
	PaddingBytes int    `json:"padding_bytes"`
	CRC          string `json:"crc"`
}

// AddChecksumCommand adds the checksum command to the root command.
func AddChecksumCommand(root *cobra.Command, _ *GlobalFlags) {
	root.AddCommand(newChecksumCmd())
}

func newChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum INPUT OUTPUT",
		Short: "Pad a raw boot2 binary, append its CRC32 and write an assembly listing",
		Long: `Seal a raw boot2 binary for the RP2040 boot ROM.

INPUT is padded with zeros to 252 bytes and followed by the little-endian
CRC32 (MPEG-2 variant) of those 252 bytes. OUTPUT receives the 256 bytes as
an assembly listing placed in the .boot2 section. Inputs larger than 252
bytes are rejected and OUTPUT is left untouched.

Examples:
  bootlink checksum build/boot2.bin build/boot2.S`,
		Args: exactArgs(2, "bootlink checksum INPUT OUTPUT"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecksum(cmd.Context(), cmd, cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runChecksum(ctx context.Context, cmd *cobra.Command, w io.Writer, in, outPath string) error {
	outputFormat := cmd.Flag("output").Value.String()
	tui.CheckNoColor()
	out := tui.NewOutput(w, outputFormat)

	sealed, err := checksum.SealFile(ctx, in, outPath)
	if err != nil {
		return err
	}

	resp := checksumResponse{
		Input:        in,
		Output:       outPath,
		PayloadBytes: sealed.PayloadLen,
		PaddingBytes: checksum.MaxPayload - sealed.PayloadLen,
		CRC:          fmt.Sprintf("0x%08x", sealed.Checksum),
	}
	if outputFormat == OutputJSON {
		return out.JSON(resp)
	}
	out.Success(fmt.Sprintf("Wrote %s (crc %s, %d bytes of padding)", outPath, resp.CRC, resp.PaddingBytes))
	return nil
}
