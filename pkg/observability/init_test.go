package observability_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)

	ctx, span := providers.Tracer.Start(context.Background(), "test-op")
	span.End()
	assert.NotNil(t, ctx)

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_LoggerHonorsConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.LogWriter = &buf
	cfg.Mode = observability.ModeFuzz

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.DebugContext(context.Background(), "hidden")
	providers.Logger.InfoContext(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"mode":"fuzz"`)
	assert.Contains(t, buf.String(), `"service":"queryfuzz"`)
}

func TestInit_WritesMetricsTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "queryfuzz.prom")

	cfg := observability.DefaultConfig()
	cfg.MetricsTextfile = path

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	fm, err := observability.NewFuzzMetrics(providers.Meter)
	require.NoError(t, err)

	fm.RecordIteration(context.Background(), observability.IterationStats{Outcome: "agree", Matches: 2, PatternSize: 3})

	require.NoError(t, providers.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "queryfuzz_iterations")
	assert.Contains(t, string(data), `outcome="agree"`)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"no_equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestBuildResource_IncludesAppMode(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeReplay
	cfg.ServiceVersion = "1.2.3"

	res, err := observability.BuildResource(cfg)
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, attr := range res.Attributes() {
		attrs[string(attr.Key)] = attr.Value.Emit()
	}

	assert.Equal(t, "replay", attrs["queryfuzz.mode"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "queryfuzz", attrs["service.name"])
}

func TestSampler_EnvOverrides(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "always_off")

	cfg := observability.DefaultConfig()
	cfg.SampleRatio = 1

	assert.False(t, observability.SampledRootSpan(cfg))
}

func TestSampler_TraceIDRatioFromEnv(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.0")

	assert.True(t, observability.SampledRootSpan(observability.DefaultConfig()))
}

func TestSampler_Default(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "")

	assert.True(t, observability.SampledRootSpan(observability.DefaultConfig()))
}

func TestSampler_UnknownEnvFallsBackToRatio(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "jaeger_remote")

	assert.True(t, observability.SampledRootSpan(observability.DefaultConfig()))
}

func TestSampler_ParentBasedRatioFromEnv(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0")

	assert.False(t, observability.SampledRootSpan(observability.DefaultConfig()))
}

func TestInit_ShutdownWritesTextfileOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "queryfuzz.prom")

	cfg := observability.DefaultConfig()
	cfg.MetricsTextfile = path

	providers, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, os.Remove(path))

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.NoFileExists(t, path)
}
