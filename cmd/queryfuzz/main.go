// Package main provides the queryfuzz CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Enter-tainer/tree-sitter/pkg/version"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "queryfuzz",
		Short: "Cross-check tree-sitter queries against a reference matcher",
		Long: `queryfuzz draws random query patterns from real syntax trees, matches them
with a small reference matcher and compares the result with tree-sitter's
own query engine.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is ./.queryfuzz.yaml or $HOME/.queryfuzz.yaml)")
	flags.StringVarP(&opts.language, "language", "l", "", "grammar name (default: from config, else detected)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(treeCmd(opts))
	rootCmd.AddCommand(generateCmd(opts))
	rootCmd.AddCommand(matchCmd(opts))
	rootCmd.AddCommand(fuzzCmd(opts))
	rootCmd.AddCommand(replayCmd(opts))
	rootCmd.AddCommand(languagesCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("queryfuzz"))
		},
	}
}
