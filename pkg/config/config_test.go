package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enter-tainer/tree-sitter/pkg/config"
	"github.com/Enter-tainer/tree-sitter/pkg/observability"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".queryfuzz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultIterations, cfg.Fuzz.Iterations)
	assert.Equal(t, uint64(config.DefaultSeed), cfg.Fuzz.Seed)
	assert.Empty(t, cfg.Fuzz.Language)
	assert.Equal(t, config.DefaultMaxPatternSize, cfg.Fuzz.MaxPatternSize)
	assert.Equal(t, config.DefaultMaxPatternDepth, cfg.Fuzz.MaxPatternDepth)
	assert.Equal(t, config.DefaultCorpusPath, cfg.Corpus.Path)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.InDelta(t, config.DefaultSampleRatio, cfg.Observability.SampleRatio, 0.001)
	assert.Empty(t, cfg.Observability.OTLPEndpoint)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `fuzz:
  language: python
  seed: 42
  iterations: 250
  max_pattern_size: 12
  max_pattern_depth: 4
corpus:
  path: out/corpus.yaml.lz4
logging:
  level: debug
  format: json
observability:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  otlp_headers: "x-team=parsers"
  sample_ratio: 0.5
  metrics_textfile: /tmp/queryfuzz.prom
`))
	require.NoError(t, err)

	assert.Equal(t, "python", cfg.Fuzz.Language)
	assert.Equal(t, uint64(42), cfg.Fuzz.Seed)
	assert.Equal(t, 250, cfg.Fuzz.Iterations)
	assert.Equal(t, 12, cfg.Fuzz.MaxPatternSize)
	assert.Equal(t, 4, cfg.Fuzz.MaxPatternDepth)
	assert.Equal(t, "out/corpus.yaml.lz4", cfg.Corpus.Path)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
	assert.True(t, cfg.Observability.OTLPInsecure)
	assert.InDelta(t, 0.5, cfg.Observability.SampleRatio, 0.001)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "fuzz:\n  iterations: 10\n")

	t.Setenv("QUERYFUZZ_FUZZ_ITERATIONS", "77")
	t.Setenv("QUERYFUZZ_FUZZ_SEED", "9")
	t.Setenv("QUERYFUZZ_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 77, cfg.Fuzz.Iterations)
	assert.Equal(t, uint64(9), cfg.Fuzz.Seed)
	assert.Equal(t, slog.LevelWarn, cfg.Logging.SlogLevel())
}

func TestLoadConfig_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".queryfuzz.yaml"), []byte("fuzz:\n  iterations: 5\n"), 0o600))

	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Fuzz.Iterations)
}

func TestLoadConfig_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultIterations, cfg.Fuzz.Iterations)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"zero iterations", "fuzz:\n  iterations: 0\n", config.ErrInvalidIterations},
		{"negative size", "fuzz:\n  max_pattern_size: -1\n", config.ErrInvalidPatternSize},
		{"negative depth", "fuzz:\n  max_pattern_depth: -2\n", config.ErrInvalidDepth},
		{"bad level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"bad format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"bad ratio", "observability:\n  sample_ratio: 1.5\n", config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_Telemetry(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `logging:
  level: error
  format: json
observability:
  environment: ci
  otlp_endpoint: collector:4317
  otlp_headers: "a=1,b=2"
  metrics_textfile: fuzz.prom
`))
	require.NoError(t, err)

	tel := cfg.Telemetry(observability.ModeFuzz, "v1.0.0")

	assert.Equal(t, observability.ModeFuzz, tel.Mode)
	assert.Equal(t, "v1.0.0", tel.ServiceVersion)
	assert.Equal(t, "ci", tel.Environment)
	assert.Equal(t, "collector:4317", tel.OTLPEndpoint)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, tel.OTLPHeaders)
	assert.Equal(t, "fuzz.prom", tel.MetricsTextfile)
	assert.Equal(t, slog.LevelError, tel.LogLevel)
	assert.True(t, tel.LogJSON)
}
