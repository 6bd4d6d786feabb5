package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Enter-tainer/tree-sitter/pkg/crosscheck"
	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

// ErrMismatches is returned when fuzzing found at least one disagreement.
var ErrMismatches = errors.New("mismatches found")

// maxShownMismatches bounds the mismatches printed per run.
const maxShownMismatches = 5

type fuzzOptions struct {
	iterations int
	seed       uint64
	corpus     string
	maxSize    int
	maxDepth   int
}

type fileResult struct {
	file     string
	language string
	report   *crosscheck.Report
}

func fuzzCmd(opts *globalOptions) *cobra.Command {
	fo := &fuzzOptions{}

	cmd := &cobra.Command{
		Use:   "fuzz FILE...",
		Short: "Cross-check random patterns against tree-sitter",
		Long: `Draw random patterns from each FILE, match them with both the reference
matcher and tree-sitter, and report every disagreement. Mismatches are saved
to the corpus for replay; the command fails when any are found.

Examples:
  queryfuzz fuzz main.go
  queryfuzz fuzz --iterations 5000 --seed 42 src/*.rs
  queryfuzz fuzz --corpus crashes.yaml.lz4 -l python scripts/*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd, opts, observability.ModeFuzz)
			if err != nil {
				return err
			}

			defer func() { err = a.close(cmd.Context(), err) }()

			fo.resolve(cmd.Flags().Changed, a)

			return runFuzz(cmd.Context(), a, fo, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&fo.iterations, "iterations", "n", 0, "patterns per file (default: from config)")
	cmd.Flags().Uint64Var(&fo.seed, "seed", 0, "random seed (default: from config, else random)")
	cmd.Flags().StringVar(&fo.corpus, "corpus", "", "mismatch corpus path, .lz4 to compress (default: from config)")
	cmd.Flags().IntVar(&fo.maxSize, "max-size", 0, "skip patterns with more nodes, 0 is unbounded (default: from config)")
	cmd.Flags().IntVar(&fo.maxDepth, "max-depth", 0, "skip deeper patterns, 0 is unbounded (default: from config)")

	return cmd
}

func runFuzz(ctx context.Context, a *app, fo *fuzzOptions, files []string, out io.Writer) error {
	metrics, err := observability.NewFuzzMetrics(a.providers.Meter)
	if err != nil {
		return err
	}

	runner := &crosscheck.Runner{
		Iterations:      fo.iterations,
		MaxPatternSize:  fo.maxSize,
		MaxPatternDepth: fo.maxDepth,
		Logger:          a.logger,
		Tracer:          a.tracer,
		Metrics:         metrics,
	}

	rng, seed := a.rng(ctx, fo.seed)
	results := make([]fileResult, 0, len(files))

	for _, file := range files {
		result, fileErr := fuzzFile(ctx, a, runner, rng, metrics, file)
		if fileErr != nil {
			return fmt.Errorf("fuzz %s: %w", file, fileErr)
		}

		results = append(results, result)
	}

	total := &crosscheck.Report{}
	for _, r := range results {
		total.Merge(r.report)
	}

	writeSummary(out, results, total, seed)

	if !total.Failed() {
		return nil
	}

	writeMismatches(out, results)

	if err := saveMismatches(fo.corpus, results); err != nil {
		return err
	}

	fmt.Fprintf(out, "saved %s to %s\n", plural(len(total.Mismatches), "mismatch", "mismatches"), fo.corpus)

	return fmt.Errorf("%w: %d", ErrMismatches, len(total.Mismatches))
}

func fuzzFile(
	ctx context.Context, a *app, runner *crosscheck.Runner, rng pattern.Rand,
	metrics *observability.FuzzMetrics, file string,
) (fileResult, error) {
	ctx, span := a.tracer.Start(ctx, "queryfuzz.file", trace.WithAttributes(attribute.String("file", file)))
	defer span.End()

	tree, language, err := a.openFile(ctx, file, "")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return fileResult{}, err
	}
	defer tree.Close()

	span.SetAttributes(attribute.String("language", language))

	parser, err := a.parser(language)
	if err != nil {
		return fileResult{}, err
	}

	before := parser.Engine().CacheStats()

	report, err := runner.Run(ctx, tree, rng)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return fileResult{}, err
	}

	after := parser.Engine().CacheStats()
	metrics.RecordFile(ctx, language, observability.CacheStats{
		Hits:      after.Hits - before.Hits,
		Misses:    after.Misses - before.Misses,
		Evictions: after.Evictions - before.Evictions,
	})

	a.logger.InfoContext(ctx, "file done", "file", file, "language", language,
		"iterations", report.Iterations, "mismatches", len(report.Mismatches), "duration", report.Duration,
		"query_cache_hit_rate", after.HitRate())

	return fileResult{file: file, language: language, report: report}, nil
}

func writeSummary(w io.Writer, results []fileResult, total *crosscheck.Report, seed uint64) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Language", "Iterations", "Agreed", "Rejected", "Skipped", "Matches", "Mismatches", "Time"})

	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.file,
			r.language,
			humanize.Comma(int64(r.report.Iterations)),
			humanize.Comma(int64(r.report.Agreed)),
			humanize.Comma(int64(r.report.Rejected)),
			humanize.Comma(int64(r.report.Skipped)),
			humanize.Comma(int64(r.report.Matches)),
			mismatchCell(len(r.report.Mismatches)),
			r.report.Duration.Round(time.Millisecond).String(),
		})
	}

	tbl.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("seed %d", seed),
		humanize.Comma(int64(total.Iterations)),
		humanize.Comma(int64(total.Agreed)),
		humanize.Comma(int64(total.Rejected)),
		humanize.Comma(int64(total.Skipped)),
		humanize.Comma(int64(total.Matches)),
		mismatchCell(len(total.Mismatches)),
		total.Duration.Round(time.Millisecond).String(),
	})

	tbl.Render()
}

func mismatchCell(n int) string {
	text := humanize.Comma(int64(n))
	if n == 0 {
		return color.GreenString(text)
	}

	return color.RedString(text)
}

func writeMismatches(w io.Writer, results []fileResult) {
	shown := 0

	for _, r := range results {
		for _, m := range r.report.Mismatches {
			if shown == maxShownMismatches {
				fmt.Fprintln(w, "...")

				return
			}

			shown++

			color.New(color.FgYellow).Fprintf(w, "%s: %s\n", r.file, m.Pattern)
			fmt.Fprint(w, indent(m.Diff, "    "))
		}
	}
}

func saveMismatches(path string, results []fileResult) error {
	corpus, err := crosscheck.LoadCorpusOrEmpty(path)
	if err != nil {
		return err
	}

	for _, r := range results {
		for _, m := range r.report.Mismatches {
			corpus.Add(r.file, r.language, m)
		}
	}

	return corpus.Save(path)
}

// resolve fills every option whose flag was not given from the config.
func (fo *fuzzOptions) resolve(changed func(name string) bool, a *app) {
	if !changed("iterations") {
		fo.iterations = a.cfg.Fuzz.Iterations
	}

	if !changed("max-size") {
		fo.maxSize = a.cfg.Fuzz.MaxPatternSize
	}

	if !changed("max-depth") {
		fo.maxDepth = a.cfg.Fuzz.MaxPatternDepth
	}

	if !changed("corpus") {
		fo.corpus = a.cfg.Corpus.Path
	}
}

func indent(text, prefix string) string {
	if text == "" {
		return ""
	}

	lines := strings.SplitAfter(text, "\n")

	var sb strings.Builder

	for _, line := range lines {
		if line == "" {
			continue
		}

		sb.WriteString(prefix)
		sb.WriteString(line)
	}

	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}

	return humanize.Comma(int64(n)) + " " + many
}
