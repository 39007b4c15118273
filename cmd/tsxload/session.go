package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tsxload/internal/config"
	"tsxload/internal/diag"
	"tsxload/internal/host"
	"tsxload/internal/loader"
	"tsxload/internal/transform"
)

// session is the hook stack shared by the commands that load modules.
type session struct {
	configs     *config.Cache
	interceptor *loader.Interceptor
	runner      *host.Runner
}

func newSession(cmd *cobra.Command, reporter diag.Reporter) (*session, error) {
	policyStr, err := cmd.Root().PersistentFlags().GetString("on-error")
	if err != nil {
		return nil, fmt.Errorf("failed to get on-error flag: %w", err)
	}
	policy, err := loader.ParseFailurePolicy(policyStr)
	if err != nil {
		return nil, err
	}
	engine, err := engineFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	configs := config.NewCache(config.FileLocator{})
	interceptor := loader.New(configs, engine,
		loader.WithReporter(reporter),
		loader.WithFailurePolicy(policy),
	)
	runner, err := host.NewRunner(&host.FS{}, interceptor)
	if err != nil {
		return nil, err
	}
	return &session{configs: configs, interceptor: interceptor, runner: runner}, nil
}

func engineFromFlags(cmd *cobra.Command) (transform.Engine, error) {
	command, err := cmd.Root().PersistentFlags().GetString("engine")
	if err != nil {
		return nil, fmt.Errorf("failed to get engine flag: %w", err)
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return transform.Esbuild{}, nil
	}
	return &transform.Exec{
		Path:   fields[0],
		Args:   fields[1:],
		Stderr: cmd.ErrOrStderr(),
	}, nil
}

// entrySpecifier turns a command-line path into an absolute specifier and
// the directory URL it is imported from, so config lookup starts next to
// the file.
func entrySpecifier(arg string) (spec, parent string, err error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	return abs, host.DirURL(filepath.Dir(abs)), nil
}
