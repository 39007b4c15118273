package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsxload/internal/diag"
)

var transpileCmd = &cobra.Command{
	Use:   "transpile [flags] <file>",
	Short: "Resolve and load one module, printing the transpiled code",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranspile,
}

func init() {
	transpileCmd.Flags().StringP("output", "o", "", "write the code to this file instead of stdout")
	transpileCmd.Flags().Bool("timings", false, "print resolve and load timings to stderr")
}

func runTranspile(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	sess, err := newSession(cmd, diag.StreamReporter{Errors: stderr, Warnings: stderr})
	if err != nil {
		return err
	}
	spec, parent, err := entrySpecifier(args[0])
	if err != nil {
		return err
	}

	mod, err := sess.runner.Run(cmd.Context(), spec, parent)
	if timings {
		_ = mod.Timings.WriteSummary(stderr) //nolint:errcheck
	}
	if err != nil {
		return err
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(mod.Loaded.Source)
		return err
	}
	// #nosec G306 -- generated code is meant to be readable
	if err := os.WriteFile(output, mod.Loaded.Source, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}
