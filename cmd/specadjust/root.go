package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshuapare/specadjust/pkg/component"
)

const usageLine = "Usage: specadjust <XML spec> <Output file>"

var (
	version = "dev"
	commit  = "none"
)

var errUsage = errors.New("usage")

// cli holds per-invocation state so tests can run commands side by side.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	verbose bool
}

// run executes the command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	cmd := c.newRootCmd()
	cmd.SetArgs(args)

	err := cmd.Execute()
	// PersistentPostRun is skipped when RunE fails.
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		c.printInfo("%s\n", usageLine)
	case errors.Is(err, component.ErrInputNotFound):
		c.printError("XML spec not found\n")
	default:
		c.printError("%v\n", err)
	}
	return 1
}

func (c *cli) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specadjust <XML spec> <Output file>",
		Short: "Clear the hash of writable memory regions in a component XML spec",
		Long: `specadjust reads a component XML spec and sets the hash of every writable
memory region to 'none', so that the loader skips hash validation for
regions whose contents change at runtime.

The adjusted spec is written to the output file. If the spec has no
writable memory region, nothing is written.

Example:
  specadjust sl.xml sl-adjusted.xml`,
		Version:       fmt.Sprintf("%s (commit %s)", version, commit),
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = newLogger(c.stderr, c.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdjust(args[0], args[1])
		},
	}
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)
	cmd.Flags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})
	return cmd
}

// exactArgs is cobra.ExactArgs reporting errUsage.
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, n, len(args))
		}
		return nil
	}
}

func (c *cli) runAdjust(inputPath, outputPath string) error {
	c.logger.Debug("adjusting component spec",
		zap.String("input", inputPath),
		zap.String("output", outputPath))

	opts := &component.Options{
		OnClear: func(region string) {
			c.printInfo("Clearing hash for writable memory region '%s'\n", region)
		},
		OnWrite: func(path string) {
			c.printInfo("Writing adjusted XML spec to '%s'\n", path)
		},
		Logger: c.logger,
	}

	report, err := component.ClearWritableHashes(inputPath, outputPath, opts)
	if err != nil {
		return err
	}
	if !report.Written {
		c.printInfo("No writable memory region found\n")
	}
	return nil
}

// newLogger logs JSON to w; only warnings and above unless verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

// printInfo prints a progress notice on stdout.
func (c *cli) printInfo(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}

// printError prints an error message on stderr.
func (c *cli) printError(format string, args ...any) {
	fmt.Fprintf(c.stderr, "Error: "+format, args...)
}
