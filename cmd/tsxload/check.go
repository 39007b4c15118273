package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tsxload/internal/checkrun"
	"tsxload/internal/diag"
	"tsxload/internal/diagfmt"
	"tsxload/internal/dialect"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <dir|file>...",
	Short: "Transpile every JSX/TSX module under the given paths and report diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
	checkCmd.Flags().String("format", "pretty", "diagnostic format (pretty|json)")
	checkCmd.Flags().Bool("watch", false, "re-run when sources or config files change")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type checkOptions struct {
	paths    []string
	baseDir  string
	jobs     int
	maxDiags int
	ui       uiMode
	format   string
	fullPath bool
}

func readCheckOptions(cmd *cobra.Command, args []string) (checkOptions, error) {
	opts := checkOptions{paths: args}
	var err error
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.maxDiags, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(format)
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	if opts.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if opts.baseDir, err = os.Getwd(); err != nil {
		return opts, err
	}
	return opts, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := readCheckOptions(cmd, args)
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}

	bag := diag.NewBag(opts.maxDiags)
	sess, err := newSession(cmd, bag)
	if err != nil {
		return err
	}

	if watch {
		return watchCheck(cmd.Context(), cmd, sess, bag, opts)
	}
	failed, err := checkOnce(cmd.Context(), cmd, sess, bag, opts)
	if err != nil {
		return err
	}
	if failed {
		return errFailed
	}
	return nil
}

// checkOnce runs one pass and prints its report. It reports whether any
// file failed.
func checkOnce(ctx context.Context, cmd *cobra.Command, sess *session, bag *diag.Bag, opts checkOptions) (bool, error) {
	files, err := checkrun.CollectFiles(opts.paths, dialect.Classifier{})
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no JSX or TypeScript modules found")
		return false, nil
	}

	req := checkrun.Request{
		Files:   files,
		BaseDir: opts.baseDir,
		Jobs:    opts.jobs,
		Chain:   sess.runner.Chain(),
		Bag:     bag,
	}
	var sum checkrun.Summary
	if useProgressUI(opts, len(files)) {
		_, sum, err = runCheckWithUI(ctx, "check", displayNames(files, opts.baseDir), req)
	} else {
		_, sum, err = checkrun.Check(ctx, req)
	}
	if err != nil {
		return false, err
	}

	bag.Sort()
	if err := renderDiagnostics(cmd.OutOrStdout(), bag, opts); err != nil {
		return false, err
	}
	if opts.format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d files in %s, %d failed\n", sum.Files, sum.Elapsed.Round(1e6), sum.Failed)
	}
	return sum.Failed > 0, nil
}

func renderDiagnostics(w io.Writer, bag *diag.Bag, opts checkOptions) error {
	mode := diagfmt.PathModeAuto
	if opts.fullPath {
		mode = diagfmt.PathModeAbsolute
	}
	if opts.format == "json" {
		return diagfmt.JSON(w, bag, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         mode,
			BaseDir:          opts.baseDir,
		})
	}
	return diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{
		Color:      colorEnabled(),
		PathMode:   mode,
		BaseDir:    opts.baseDir,
		ShowSource: true,
		Summary:    bag.Len() > 0,
	})
}

func displayNames(files []string, base string) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = checkrun.DisplayPath(f, base)
	}
	return names
}
