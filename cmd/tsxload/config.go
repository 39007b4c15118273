package main

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"tsxload/internal/config"
	"tsxload/internal/host"
)

var configCmd = &cobra.Command{
	Use:   "config [flags] [file]",
	Short: "Print the transform config that applies to a file",
	Long: `Print the transform config that applies to modules imported by file (or the
current directory), as TOML. The config file it came from is named in a comment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	configCmd.Flags().Bool("path", false, "print only the path of the config file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	pathOnly, err := cmd.Flags().GetBool("path")
	if err != nil {
		return fmt.Errorf("failed to get path flag: %w", err)
	}

	var location *url.URL
	if len(args) == 1 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		location, err = url.Parse(host.FileURL(abs))
		if err != nil {
			return err
		}
	}

	cfg, err := config.FileLocator{}.Locate(cmd.Context(), location)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if pathOnly {
		if cfg.Path == "" {
			return fmt.Errorf("no %s found", config.FileNames[0])
		}
		_, err := fmt.Fprintln(out, cfg.Path)
		return err
	}
	if cfg.Path != "" {
		fmt.Fprintf(out, "# %s\n", cfg.Path)
	} else {
		fmt.Fprintln(out, "# defaults (no config file found)")
	}
	return config.Encode(out, cfg)
}
