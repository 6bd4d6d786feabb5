package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Enter-tainer/tree-sitter/pkg/crosscheck"
	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/treesitter"
)

// ErrStillFailing is returned when replayed cases keep disagreeing.
var ErrStillFailing = errors.New("cases still failing")

const (
	statusFixed   = "fixed"
	statusFailing = "failing"
)

type replayResult struct {
	c        crosscheck.Case
	mismatch crosscheck.Mismatch
	fixed    bool
}

func replayCmd(opts *globalOptions) *cobra.Command {
	var diffs bool

	cmd := &cobra.Command{
		Use:   "replay [CORPUS]",
		Short: "Re-run saved mismatches",
		Long: `Re-run every case of a mismatch corpus against its file and report which
still disagree. CORPUS defaults to the configured corpus path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd, opts, observability.ModeReplay)
			if err != nil {
				return err
			}

			defer func() { err = a.close(cmd.Context(), err) }()

			path := a.cfg.Corpus.Path
			if len(args) == 1 {
				path = args[0]
			}

			corpus, err := crosscheck.LoadCorpus(path)
			if err != nil {
				return err
			}

			results, err := replay(cmd.Context(), a, corpus)
			if err != nil {
				return err
			}

			return writeReplay(cmd.OutOrStdout(), results, diffs)
		},
	}

	cmd.Flags().BoolVar(&diffs, "diff", false, "print the diff of every failing case")

	return cmd
}

func replay(ctx context.Context, a *app, corpus *crosscheck.Corpus) ([]replayResult, error) {
	results := make([]replayResult, 0, len(corpus.Cases))

	for _, c := range corpus.Cases {
		tree, _, err := a.openFile(ctx, c.File, c.Language)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", c.File, err)
		}

		mismatch, ok, err := crosscheck.Check(ctx, tree, c.Pattern)
		tree.Close()

		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", c.File, err)
		}

		a.logger.DebugContext(ctx, "replayed case", "file", c.File, "pattern", c.Pattern, "fixed", ok)

		results = append(results, replayResult{c: c, mismatch: mismatch, fixed: ok})
	}

	return results, nil
}

func writeReplay(w io.Writer, results []replayResult, diffs bool) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Language", "Pattern", "Status"})

	failing := 0

	for _, r := range results {
		status := color.GreenString(statusFixed)
		if !r.fixed {
			status = color.RedString(statusFailing)
			failing++
		}

		tbl.AppendRow(table.Row{r.c.File, r.c.Language, r.c.Pattern, status})
	}

	tbl.AppendFooter(table.Row{"", "", fmt.Sprintf("%d cases", len(results)), plural(failing, "failing", "failing")})
	tbl.Render()

	if failing == 0 {
		return nil
	}

	if diffs {
		for _, r := range results {
			if r.fixed {
				continue
			}

			color.New(color.FgYellow).Fprintf(w, "%s: %s\n", r.c.File, r.c.Pattern)
			fmt.Fprint(w, indent(r.mismatch.Diff, "    "))
		}
	}

	return fmt.Errorf("%w: %d", ErrStillFailing, failing)
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the bundled grammars",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range treesitter.Languages() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
