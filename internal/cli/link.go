package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/pipeline"
	"github.com/mrz1836/bootlink/internal/signal"
	"github.com/mrz1836/bootlink/internal/tui"
)

// linkOptions holds the flags of the link command.
type linkOptions struct {
	configPath string
	outDir     string
	formats    []string
	clang      string
	ar         string
	objcopy    string
	dryRun     bool
}

// AddLinkCommand adds the link command to the root command.
func AddLinkCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newLinkCmd(flags))
}

func newLinkCmd(flags *GlobalFlags) *cobra.Command {
	opts := &linkOptions{}

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Build boot2 and the application and link them into one executable",
		Long: `Run the whole firmware pipeline described by bootlink.yaml.

The stages run in this order and the first failure stops the run:
  boot2:build     run the boot2 build command
  boot2:extract   pull the single object out of the boot2 archive
  boot2:link      link boot2 with its linker script
  boot2:objcopy   dump the linked boot2 as a raw binary
  boot2:checksum  pad to 252 bytes, append the CRC32, emit assembly
  boot2:assemble  assemble the listing into an object
  app:build       run the application build command
  app:link        link runtime objects, the application and boot2
  app:export      write bin, hex or uf2 images (when formats are set)

Examples:
  bootlink link
  bootlink link --dry-run
  bootlink link --config firmware/bootlink.yaml --format uf2
  bootlink link --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLink(cmd.Context(), cmd, cmd.OutOrStdout(), flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "project config file (default ./bootlink.yaml)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory (overrides output.dir)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "export formats: bin, hex, uf2 (overrides output.formats)")
	cmd.Flags().StringVar(&opts.clang, "clang", "", "clang executable")
	cmd.Flags().StringVar(&opts.ar, "ar", "", "ar executable")
	cmd.Flags().StringVar(&opts.objcopy, "objcopy", "", "objcopy executable")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the tool invocations without running them")

	return cmd
}

func runLink(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *GlobalFlags, opts *linkOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outputFormat := cmd.Flag("output").Value.String()
	tui.CheckNoColor()
	out := tui.NewOutput(w, outputFormat)

	cfg, err := config.LoadWithOverrides(ctx, opts.configPath, &config.Config{
		Toolchain: config.ToolchainConfig{Clang: opts.clang, Ar: opts.ar, Objcopy: opts.objcopy},
		Output:    config.OutputConfig{Dir: opts.outDir, Formats: opts.formats},
	})
	if err != nil {
		return err
	}

	pipeOpts := pipeline.Options{DryRun: opts.dryRun}
	if flags.Verbose {
		pipeOpts.LiveOutput = cmd.ErrOrStderr()
	}

	var spinner *tui.Spinner
	if outputFormat != OutputJSON && !flags.Quiet {
		spinner = tui.NewSpinner(spinnerWriter(cmd))
		pipeOpts.Progress = stageProgress(ctx, spinner, out)
	}

	p, err := pipeline.New(cfg, pipeOpts)
	if err != nil {
		return err
	}

	sig := signal.NewHandler(ctx)
	defer sig.Stop()

	result, err := p.Run(sig.Context())
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil && sig.WasInterrupted() {
		err = fmt.Errorf("%w: %w", errors.ErrInterrupted, err)
	}

	if outputFormat == OutputJSON {
		if err != nil {
			return err
		}
		return out.JSON(result)
	}
	if err != nil {
		return err
	}

	if result.DryRun {
		for _, sr := range result.Stages {
			for _, inv := range sr.Invocations {
				_, _ = fmt.Fprintf(w, "%-16s %s\n", sr.Name, inv.CommandLine())
			}
		}
		out.Info(fmt.Sprintf("Dry run: would link %s", result.Executable))
		return nil
	}

	out.Success(fmt.Sprintf("Linked %s (%s)", result.Executable, tui.FormatDuration(time.Duration(result.DurationMs)*time.Millisecond)))
	if result.SHA256 != "" {
		out.Info("sha256 " + result.SHA256)
	}
	for _, e := range result.Exports {
		out.Info("exported " + e)
	}
	return nil
}

// stageProgress returns a progress callback that animates the running stage
// and prints one line per finished stage.
func stageProgress(ctx context.Context, spinner *tui.Spinner, out tui.Output) pipeline.ProgressFunc {
	var (
		mu      sync.Mutex
		started = map[string]time.Time{}
	)
	return func(stage string, status pipeline.StageStatus) {
		mu.Lock()
		defer mu.Unlock()

		switch status {
		case pipeline.StatusStarting:
			started[stage] = time.Now()
			spinner.Start(ctx, fmt.Sprintf("Running %s...", stage))
		case pipeline.StatusCompleted, pipeline.StatusFailed:
			spinner.Stop()
			out.Stage(stage, string(status), time.Since(started[stage]))
		}
	}
}

// spinnerWriter returns the stream the spinner animates on. The spinner only
// runs when stderr is a terminal; otherwise its frames would pollute logs.
func spinnerWriter(cmd *cobra.Command) io.Writer {
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && tui.IsTerminal(f) {
		return f
	}
	return io.Discard
}
