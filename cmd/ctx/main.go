package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/cli"
	"github.com/example/ctx/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "ctx",
		Short:   "ctx - context-managed agent tasks",
		Version: version.String(),
		Long: `ctx manages a library of concept documents and launches agent tasks
over assembled context. Every task is recorded in an append-only ledger
and can be forked or resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ConceptCmd())
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.ReportCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
