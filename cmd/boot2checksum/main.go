// Package main provides boot2checksum, the standalone form of
// "bootlink checksum" for build systems that call it directly:
//
//	boot2checksum INPUT OUTPUT
//
// It exits 0 on success, 1 when the input cannot be sealed and 2 on a
// malformed invocation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/errors"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if len(args) != 2 {
		err := errors.NewUsageError("expected 2 arguments, got %d\nusage: boot2checksum INPUT OUTPUT", len(args))
		_, _ = fmt.Fprintf(stderr, "boot2checksum: %s\n", err)
		return 2
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	if _, err := checksum.SealFile(ctx, args[0], args[1]); err != nil {
		msg, _ := errors.Actionable(err)
		_, _ = fmt.Fprintf(stderr, "boot2checksum: %s\n", err)
		if msg != err.Error() {
			_, _ = fmt.Fprintf(stderr, "  %s\n", msg)
		}
		return 1
	}
	return 0
}
