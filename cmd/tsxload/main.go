package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tsxload/internal/prof"
	"tsxload/internal/version"
)

// errFailed ends a command with exit status 1 after it has already printed
// its own report.
var errFailed = errors.New("failed")

var (
	traceCleanup func(failed bool)
	profiler     *prof.Session
)

var rootCmd = &cobra.Command{
	Use:   "tsxload",
	Short: "Load JSX and TypeScript modules through a transform hook",
	Long: `tsxload resolves and loads .jsx, .ts, .mts and .tsx modules the way a module
host with a transform hook would, transpiling them to plain JavaScript.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		profiler, err = setupProfiling(cmd)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		finish(cmd, false)
	},
}

// finish stops the profilers and flushes the tracer. It runs after every
// command, including failed ones.
func finish(cmd *cobra.Command, failed bool) {
	if err := profiler.Stop(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
	}
	profiler = nil
	if traceCleanup != nil {
		traceCleanup(failed)
		traceCleanup = nil
	}
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(engineCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("on-error", "fail", "what a failed transform yields (fail|raw)")
	flags.String("engine", "", "external transform engine command (default: built-in esbuild)")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|hook|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		// PersistentPostRun does not run when RunE fails.
		finish(rootCmd, true)
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "tsxload: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
