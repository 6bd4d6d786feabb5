package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

const defaultGenerateCount = 10

func generateCmd(opts *globalOptions) *cobra.Command {
	var (
		count     int
		seed      uint64
		withCount bool
	)

	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Print random patterns drawn from a file's syntax tree",
		Long: `Print random query patterns drawn from the syntax tree of FILE. Every
pattern is guaranteed to match the tree at least once.

Examples:
  queryfuzz generate main.go                 # 10 patterns, fresh seed
  queryfuzz generate -n 50 --seed 7 lib.py   # reproducible
  queryfuzz generate -c main.go              # with oracle match counts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd, opts, observability.ModeInspect)
			if err != nil {
				return err
			}

			defer func() { err = a.close(cmd.Context(), err) }()

			tree, _, err := a.openFile(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			defer tree.Close()

			rng, _ := a.rng(cmd.Context(), seed)
			out := cmd.OutOrStdout()

			for range count {
				p := pattern.RandomInTree(tree, rng)

				if withCount {
					fmt.Fprintf(out, "%d\t%s\n", len(p.MatchesInTree(tree)), p)
				} else {
					fmt.Fprintln(out, p)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", defaultGenerateCount, "number of patterns")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: from config, else random)")
	cmd.Flags().BoolVarP(&withCount, "matches", "c", false, "prefix each pattern with its oracle match count")

	return cmd
}
