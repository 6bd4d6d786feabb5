package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
)

func setupFuzzMeter(t *testing.T) (*observability.FuzzMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	fm, err := observability.NewFuzzMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return fm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByAttr(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] data type")

	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key(key)); found && v.AsString() == value {
			return dp.Value
		}
	}

	return 0
}

func TestFuzzMetrics_RecordIteration(t *testing.T) {
	t.Parallel()

	fm, reader := setupFuzzMeter(t)
	ctx := context.Background()

	fm.RecordIteration(ctx, observability.IterationStats{Outcome: "agree", Matches: 3, PatternSize: 4, Duration: time.Millisecond})
	fm.RecordIteration(ctx, observability.IterationStats{Outcome: "agree", Matches: 1, PatternSize: 2, Duration: time.Millisecond})
	fm.RecordIteration(ctx, observability.IterationStats{Outcome: "mismatch", Matches: 0, PatternSize: 1, Duration: time.Millisecond})

	rm := collectMetrics(t, reader)

	iterations := findMetric(rm, "queryfuzz.iterations.total")
	require.NotNil(t, iterations)
	assert.Equal(t, int64(2), sumByAttr(t, iterations, "outcome", "agree"))
	assert.Equal(t, int64(1), sumByAttr(t, iterations, "outcome", "mismatch"))

	matches := findMetric(rm, "queryfuzz.oracle.matches")
	require.NotNil(t, matches)

	hist, ok := matches.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
	assert.Equal(t, int64(4), hist.DataPoints[0].Sum)

	require.NotNil(t, findMetric(rm, "queryfuzz.iteration.duration.seconds"))
	require.NotNil(t, findMetric(rm, "queryfuzz.pattern.size"))
}

func TestFuzzMetrics_RecordFile(t *testing.T) {
	t.Parallel()

	fm, reader := setupFuzzMeter(t)

	fm.RecordFile(context.Background(), "go", observability.CacheStats{Hits: 7, Misses: 3, Evictions: 2})

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "queryfuzz.files.total")
	require.NotNil(t, files)
	assert.Equal(t, int64(1), sumByAttr(t, files, "language", "go"))

	cache := findMetric(rm, "queryfuzz.query_cache.lookups.total")
	require.NotNil(t, cache)
	assert.Equal(t, int64(7), sumByAttr(t, cache, "result", "hit"))
	assert.Equal(t, int64(3), sumByAttr(t, cache, "result", "miss"))
	assert.Equal(t, int64(2), sumByAttr(t, cache, "result", "evict"))
}

func TestFuzzMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var fm *observability.FuzzMetrics

	assert.NotPanics(t, func() {
		fm.RecordIteration(context.Background(), observability.IterationStats{Outcome: "agree"})
		fm.RecordFile(context.Background(), "go", observability.CacheStats{Hits: 1, Misses: 1})
	})
}
