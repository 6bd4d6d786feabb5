package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricIterationsTotal   = "queryfuzz.iterations.total"
	metricIterationDuration = "queryfuzz.iteration.duration.seconds"
	metricOracleMatches     = "queryfuzz.oracle.matches"
	metricPatternSize       = "queryfuzz.pattern.size"
	metricFilesTotal        = "queryfuzz.files.total"
	metricQueryCacheTotal   = "queryfuzz.query_cache.lookups.total"

	attrOutcome  = "outcome"
	attrLanguage = "language"
	attrResult   = "result"
)

var (
	durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}
	countBucketBoundaries    = []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256}
)

// FuzzMetrics holds the instruments recorded by the fuzz harness.
type FuzzMetrics struct {
	iterations  metric.Int64Counter
	duration    metric.Float64Histogram
	matches     metric.Int64Histogram
	patternSize metric.Int64Histogram
	files       metric.Int64Counter
	queryCache  metric.Int64Counter
}

// CacheStats counts compiled query cache activity over one file.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// IterationStats describes one generated pattern and how it fared.
type IterationStats struct {
	Outcome     string
	Matches     int
	PatternSize int
	Duration    time.Duration
}

// NewFuzzMetrics creates fuzz metric instruments from the given meter.
func NewFuzzMetrics(mt metric.Meter) (*FuzzMetrics, error) {
	iterations, err := mt.Int64Counter(metricIterationsTotal,
		metric.WithDescription("Generated patterns by outcome"),
		metric.WithUnit("{pattern}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIterationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricIterationDuration,
		metric.WithDescription("Time to generate, match and cross-check one pattern"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIterationDuration, err)
	}

	matches, err := mt.Int64Histogram(metricOracleMatches,
		metric.WithDescription("Oracle matches per pattern"),
		metric.WithUnit("{match}"),
		metric.WithExplicitBucketBoundaries(countBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOracleMatches, err)
	}

	size, err := mt.Int64Histogram(metricPatternSize,
		metric.WithDescription("Pattern nodes per generated pattern"),
		metric.WithUnit("{node}"),
		metric.WithExplicitBucketBoundaries(countBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPatternSize, err)
	}

	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Files parsed by language"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	cache, err := mt.Int64Counter(metricQueryCacheTotal,
		metric.WithDescription("Compiled query cache lookups and evictions by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricQueryCacheTotal, err)
	}

	return &FuzzMetrics{
		iterations:  iterations,
		duration:    duration,
		matches:     matches,
		patternSize: size,
		files:       files,
		queryCache:  cache,
	}, nil
}

// RecordIteration records one fuzz iteration.
// Safe to call on a nil receiver (no-op).
func (fm *FuzzMetrics) RecordIteration(ctx context.Context, stats IterationStats) {
	if fm == nil {
		return
	}

	outcome := metric.WithAttributes(attribute.String(attrOutcome, stats.Outcome))

	fm.iterations.Add(ctx, 1, outcome)
	fm.duration.Record(ctx, stats.Duration.Seconds(), outcome)
	fm.matches.Record(ctx, int64(stats.Matches))
	fm.patternSize.Record(ctx, int64(stats.PatternSize))
}

// RecordFile records a parsed file together with the query cache activity
// accumulated while fuzzing it. Evictions are reported under result="evict".
// Safe to call on a nil receiver (no-op).
func (fm *FuzzMetrics) RecordFile(ctx context.Context, language string, cache CacheStats) {
	if fm == nil {
		return
	}

	fm.files.Add(ctx, 1, metric.WithAttributes(attribute.String(attrLanguage, language)))
	fm.queryCache.Add(ctx, cache.Hits, metric.WithAttributes(attribute.String(attrResult, "hit")))
	fm.queryCache.Add(ctx, cache.Misses, metric.WithAttributes(attribute.String(attrResult, "miss")))
	fm.queryCache.Add(ctx, cache.Evictions, metric.WithAttributes(attribute.String(attrResult, "evict")))
}
