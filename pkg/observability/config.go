// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the queryfuzz commands.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies which command is running.
type AppMode string

const (
	// ModeInspect covers the read-only commands (tree, generate, match).
	ModeInspect AppMode = "inspect"
	// ModeFuzz is the fuzz command.
	ModeFuzz AppMode = "fuzz"
	// ModeReplay is the replay command.
	ModeReplay AppMode = "replay"
)

const (
	defaultServiceName        = "queryfuzz"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "ci".
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address.
	// Empty disables OTLP export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio. Zero samples everything.
	SampleRatio float64

	// MetricsTextfile, when set, receives a Prometheus text exposition of
	// all metrics on shutdown.
	MetricsTextfile string

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogWriter receives log output. Nil means stderr.
	LogWriter io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeInspect,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
