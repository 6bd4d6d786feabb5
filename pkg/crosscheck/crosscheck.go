// Package crosscheck fuzzes a production query engine against the pattern
// oracle: it draws random patterns from a tree, runs both engines and
// reports every pattern on which they disagree.
package crosscheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// Iteration outcomes.
const (
	OutcomeAgree    = "agree"
	OutcomeMismatch = "mismatch"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// DefaultIterations is used when Runner.Iterations is not positive.
const DefaultIterations = 100

var errNilTarget = errors.New("crosscheck: nil target")

// Target is a parsed file that a production engine can query.
type Target interface {
	syntax.Tree

	// Query runs text and returns the captures of every match. Any error
	// other than a context error means the engine rejected the text.
	Query(ctx context.Context, text string) ([][]pattern.Capture, error)
}

// Mismatch is a pattern on which the oracle and the engine disagree.
type Mismatch struct {
	Pattern  string
	Expected []string
	Actual   []string
	Diff     string
}

// Report summarizes one Run.
type Report struct {
	Iterations int
	Agreed     int
	Skipped    int
	Rejected   int
	Matches    int
	Mismatches []Mismatch
	Duration   time.Duration
}

// Failed reports whether any mismatch was found.
func (r *Report) Failed() bool {
	return len(r.Mismatches) > 0
}

// Merge adds other's counts and mismatches to r.
func (r *Report) Merge(other *Report) {
	r.Iterations += other.Iterations
	r.Agreed += other.Agreed
	r.Skipped += other.Skipped
	r.Rejected += other.Rejected
	r.Matches += other.Matches
	r.Mismatches = append(r.Mismatches, other.Mismatches...)
	r.Duration += other.Duration
}

// Runner drives the fuzz loop. The zero value runs DefaultIterations with
// no size bound, a discarding logger and no telemetry.
type Runner struct {
	Iterations      int
	MaxPatternSize  int
	MaxPatternDepth int

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.FuzzMetrics
}

// Run draws Iterations patterns from target using rng and checks each one.
func (r *Runner) Run(ctx context.Context, target Target, rng pattern.Rand) (*Report, error) {
	if target == nil {
		return nil, errNilTarget
	}

	logger := r.logger()
	iterations := r.Iterations

	if iterations <= 0 {
		iterations = DefaultIterations
	}

	ctx, span := r.tracer().Start(ctx, "crosscheck.run",
		trace.WithAttributes(attribute.Int("crosscheck.iterations", iterations)))
	defer span.End()

	report := &Report{}
	start := time.Now()

	for i := range iterations {
		outcome, err := r.iterate(ctx, target, rng, report)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			report.Duration = time.Since(start)

			return report, fmt.Errorf("iteration %d: %w", i, err)
		}

		logger.DebugContext(ctx, "iteration done", "iteration", i, "outcome", outcome)
	}

	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("crosscheck.mismatches", len(report.Mismatches)),
		attribute.Int("crosscheck.rejected", report.Rejected),
	)

	if report.Failed() {
		span.SetStatus(codes.Error, "mismatch")
	}

	return report, nil
}

func (r *Runner) iterate(ctx context.Context, target Target, rng pattern.Rand, report *Report) (string, error) {
	started := time.Now()
	report.Iterations++

	p := pattern.RandomInTree(target, rng)
	size := p.Size()

	if r.exceedsBounds(p) {
		report.Skipped++
		r.record(ctx, OutcomeSkipped, 0, size, started)

		return OutcomeSkipped, nil
	}

	text := p.String()
	matches := p.MatchesInTree(target)
	report.Matches += len(matches)

	actual, err := target.Query(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("query %q: %w", text, ctxErr)
		}

		r.logger().DebugContext(ctx, "pattern rejected", "pattern", text, "error", err)

		report.Rejected++
		r.record(ctx, OutcomeRejected, len(matches), size, started)

		return OutcomeRejected, nil
	}

	mismatch, ok := Compare(text, OracleCaptures(matches), actual)
	if !ok {
		r.logger().WarnContext(ctx, "engines disagree", "pattern", text,
			"expected", len(mismatch.Expected), "actual", len(mismatch.Actual))

		report.Mismatches = append(report.Mismatches, mismatch)
		r.record(ctx, OutcomeMismatch, len(matches), size, started)

		return OutcomeMismatch, nil
	}

	report.Agreed++
	r.record(ctx, OutcomeAgree, len(matches), size, started)

	return OutcomeAgree, nil
}

// Compare normalizes both result sets. It returns false with the details
// when they differ.
func Compare(text string, expected, actual [][]pattern.Capture) (Mismatch, bool) {
	want := Normalize(expected)
	got := Normalize(actual)

	if slices.Equal(want, got) {
		return Mismatch{}, true
	}

	return Mismatch{
		Pattern:  text,
		Expected: want,
		Actual:   got,
		Diff:     LineDiff(want, got),
	}, false
}

func (r *Runner) exceedsBounds(p *pattern.Pattern) bool {
	if r.MaxPatternSize > 0 && p.Size() > r.MaxPatternSize {
		return true
	}

	return r.MaxPatternDepth > 0 && p.Depth() > r.MaxPatternDepth
}

func (r *Runner) record(ctx context.Context, outcome string, matches, size int, started time.Time) {
	r.Metrics.RecordIteration(ctx, observability.IterationStats{
		Outcome:     outcome,
		Matches:     matches,
		PatternSize: size,
		Duration:    time.Since(started),
	})
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}

	return noop.NewTracerProvider().Tracer("crosscheck")
}

// Check runs a single pattern text through both engines.
func Check(ctx context.Context, target Target, text string) (Mismatch, bool, error) {
	p, err := pattern.Parse(text)
	if err != nil {
		return Mismatch{}, false, fmt.Errorf("parse pattern: %w", err)
	}

	actual, err := target.Query(ctx, text)
	if err != nil {
		return Mismatch{}, false, fmt.Errorf("query %q: %w", text, err)
	}

	mismatch, ok := Compare(text, OracleCaptures(p.MatchesInTree(target)), actual)

	return mismatch, ok, nil
}
