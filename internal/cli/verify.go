package cli

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/elfimage"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/tui"
)

// verifyResponse is the JSON output of the verify command.
type verifyResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	CRC   string `json:"crc,omitempty"`
	Error string `json:"error,omitempty"`
}

// AddVerifyCommand adds the verify command to the root command.
func AddVerifyCommand(root *cobra.Command, _ *GlobalFlags) {
	root.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	var listing bool

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check the boot2 checksum of a linked executable or listing",
		Long: `Check that FILE carries a 256-byte boot2 whose trailing CRC32 matches
its first 252 bytes.

FILE is a linked ELF executable unless --listing is given, in which case
it is an assembly listing written by "bootlink checksum".

Examples:
  bootlink verify out/Blinky.elf
  bootlink verify --listing build/boot2.S`,
		Args: exactArgs(1, "bootlink verify [--listing] FILE"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd, cmd.OutOrStdout(), args[0], listing)
		},
	}
	cmd.Flags().BoolVar(&listing, "listing", false, "FILE is an assembly listing instead of an ELF")
	return cmd
}

func runVerify(_ context.Context, cmd *cobra.Command, w io.Writer, path string, listing bool) error {
	outputFormat := cmd.Flag("output").Value.String()
	tui.CheckNoColor()
	out := tui.NewOutput(w, outputFormat)

	img, err := readBoot2(path, listing)
	if err == nil {
		err = checksum.Verify(img)
	}

	resp := verifyResponse{Path: path, Valid: err == nil}
	if len(img) == checksum.ImageSize {
		resp.CRC = fmt.Sprintf("0x%08x", binary.LittleEndian.Uint32(img[checksum.MaxPayload:]))
	}
	if err != nil {
		resp.Error = err.Error()
	}

	if outputFormat == OutputJSON {
		if jerr := out.JSON(resp); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("%s: boot2 valid (crc %s)", path, resp.CRC))
	return nil
}

// readBoot2 returns the boot2 image held by path.
func readBoot2(path string, listing bool) ([]byte, error) {
	if !listing {
		ss, err := elfimage.ReadELF(path)
		if err != nil {
			return nil, err
		}
		return elfimage.Boot2(ss)
	}

	f, err := os.Open(path) //#nosec G304 -- path is given on the command line
	if err != nil {
		return nil, errors.Wrap(err, "open listing")
	}
	defer func() { _ = f.Close() }()

	l, err := checksum.ParseListing(f)
	if err != nil {
		return nil, err
	}
	return l.Bytes(), nil
}
