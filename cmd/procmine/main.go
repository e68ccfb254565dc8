// Package main is the entry point of procmine. It generates the simulated
// insurance event log and the invoice demo data, runs the analytics passes,
// and serves the read API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "procmine: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks an invalid invocation.
type usageError struct{ error }

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "procmine",
		Short:         "Process-mining demo data generator and read API",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to configuration file (defaults are used when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override observability.log_level")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newInvoicesCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newDiagramCommand(opts))

	return cmd
}
