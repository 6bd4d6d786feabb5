// Package config loads queryfuzz settings from a YAML file, QUERYFUZZ_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidIterations  = errors.New("fuzz iterations must be positive")
	ErrInvalidPatternSize = errors.New("max pattern size must not be negative")
	ErrInvalidDepth       = errors.New("max pattern depth must not be negative")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config holds all configuration for queryfuzz.
type Config struct {
	Fuzz          FuzzConfig          `mapstructure:"fuzz"`
	Corpus        CorpusConfig        `mapstructure:"corpus"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// FuzzConfig bounds the fuzz loop.
type FuzzConfig struct {
	// Language overrides grammar detection when set.
	Language string `mapstructure:"language"`
	// Seed fixes the random source. Zero picks a fresh seed per run.
	Seed            uint64 `mapstructure:"seed"`
	Iterations      int    `mapstructure:"iterations"`
	MaxPatternSize  int    `mapstructure:"max_pattern_size"`
	MaxPatternDepth int    `mapstructure:"max_pattern_depth"`
}

// CorpusConfig locates the mismatch corpus.
type CorpusConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	Environment     string  `mapstructure:"environment"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	MetricsTextfile string  `mapstructure:"metrics_textfile"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from configPath, or from .queryfuzz.yaml in
// the working directory or $HOME when configPath is empty. A missing
// default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("fuzz.language", "")
	viperCfg.SetDefault("fuzz.seed", DefaultSeed)
	viperCfg.SetDefault("fuzz.iterations", DefaultIterations)
	viperCfg.SetDefault("fuzz.max_pattern_size", DefaultMaxPatternSize)
	viperCfg.SetDefault("fuzz.max_pattern_depth", DefaultMaxPatternDepth)

	viperCfg.SetDefault("corpus.path", DefaultCorpusPath)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.metrics_textfile", "")
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
}

func validateConfig(config *Config) error {
	if config.Fuzz.Iterations <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, config.Fuzz.Iterations)
	}

	if config.Fuzz.MaxPatternSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPatternSize, config.Fuzz.MaxPatternSize)
	}

	if config.Fuzz.MaxPatternDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, config.Fuzz.MaxPatternDepth)
	}

	if _, ok := logLevels[strings.ToLower(config.Logging.Level)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Observability.SampleRatio < 0 || config.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Observability.SampleRatio)
	}

	return nil
}

// SlogLevel returns the validated log level.
func (l LoggingConfig) SlogLevel() slog.Level {
	return logLevels[strings.ToLower(l.Level)]
}

// Telemetry builds the observability settings for one command run.
func (c *Config) Telemetry(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()

	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.Mode = mode
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.MetricsTextfile = c.Observability.MetricsTextfile
	cfg.LogLevel = c.Logging.SlogLevel()
	cfg.LogJSON = c.Logging.Format == "json"

	return cfg
}
