package main

import (
	"github.com/spf13/cobra"

	"tsxload/internal/transform"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Serve one transform request on stdin/stdout",
	Long: `Read one msgpack transform request from stdin, run the built-in esbuild engine
and write the response to stdout. This is the protocol spoken by --engine.`,
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transform.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), transform.Esbuild{})
	},
}
