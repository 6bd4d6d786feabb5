package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/Enter-tainer/tree-sitter/queryfuzz"

	// attrModeKey tags the resource with the queryfuzz subcommand family.
	attrModeKey = attribute.Key("queryfuzz.mode")

	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// envSamplers maps OTEL_TRACES_SAMPLER values to samplers. Unknown names
// fall back to the configured ratio.
var envSamplers = map[string]func(arg string) sdktrace.Sampler{
	"always_on":    func(string) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off":   func(string) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(arg string) sdktrace.Sampler { return sdktrace.TraceIDRatioBased(parseRatio(arg)) },
	"parentbased_traceidratio": func(arg string) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseRatio(arg)))
	},
}

// Providers bundles what a queryfuzz command needs to report telemetry.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// Shutdown flushes exporters and writes the metrics textfile. Safe to
	// call more than once.
	Shutdown func(ctx context.Context) error
}

// Init wires tracing, metrics and logging from cfg. Tracing stays a no-op
// without an OTLP endpoint; metrics stay a no-op unless an endpoint or a
// textfile is set.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	var chain shutdownChain

	tp, err := buildTracerProvider(ctx, cfg, res, &chain)
	if err != nil {
		return Providers{}, fmt.Errorf("build tracer provider: %w", err)
	}

	mp, err := buildMeterProvider(ctx, cfg, res, &chain)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), chain.run(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeoutSec * time.Second
	}

	return Providers{
		Tracer: tp.Tracer(instrumentationName),
		Meter:  mp.Meter(instrumentationName),
		Logger: NewLogger(cfg),
		Shutdown: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return chain.run(ctx)
		},
	}, nil
}

// shutdownChain runs registered shutdowns in order and forgets them, so a
// second run is a no-op.
type shutdownChain []func(ctx context.Context) error

func (c *shutdownChain) add(fn func(ctx context.Context) error) {
	*c = append(*c, fn)
}

func (c *shutdownChain) run(ctx context.Context) error {
	fns := *c
	*c = nil

	errs := make([]error, 0, len(fns))
	for _, fn := range fns {
		errs = append(errs, fn(ctx))
	}

	return errors.Join(errs...)
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attrModeKey.String(string(cfg.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

// otlpTarget is the collector connection shared by the trace and metric
// exporters.
type otlpTarget struct {
	endpoint string
	insecure bool
	headers  map[string]string
}

func newOTLPTarget(cfg Config) otlpTarget {
	return otlpTarget{endpoint: cfg.OTLPEndpoint, insecure: cfg.OTLPInsecure, headers: cfg.OTLPHeaders}
}

func (t otlpTarget) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.endpoint)}
	if t.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(t.headers))
	}

	return opts
}

func (t otlpTarget) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(t.endpoint)}
	if t.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(t.headers))
	}

	return opts
}

func buildTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource, chain *shutdownChain,
) (trace.TracerProvider, error) {
	if cfg.OTLPEndpoint == "" {
		return nooptrace.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(ctx, newOTLPTarget(cfg).traceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(selectSampler(cfg)),
	)
	chain.add(tp.Shutdown)

	return tp, nil
}

// selectSampler prefers OTEL_TRACES_SAMPLER, then cfg.SampleRatio. A fuzz
// run spawned by a traced CI job inherits the parent's decision.
func selectSampler(cfg Config) sdktrace.Sampler {
	if build, ok := envSamplers[os.Getenv(envTracesSampler)]; ok {
		return build(os.Getenv(envTracesSamplerArg))
	}

	if cfg.SampleRatio > 0 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

// buildMeterProvider attaches an OTLP periodic reader and a Prometheus
// reader as configured. The textfile is written before the provider stops.
func buildMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource, chain *shutdownChain,
) (metric.MeterProvider, error) {
	if cfg.OTLPEndpoint == "" && cfg.MetricsTextfile == "" {
		return noopmetric.NewMeterProvider(), nil
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx, newOTLPTarget(cfg).metricOptions()...)
		if err != nil {
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	var registry *prometheus.Registry

	if cfg.MetricsTextfile != "" {
		reg, reader, err := newPrometheusReader()
		if err != nil {
			return nil, err
		}

		registry = reg
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	if registry != nil {
		chain.add(func(context.Context) error { return writeTextfile(cfg.MetricsTextfile, registry) })
	}

	chain.add(mp.Shutdown)

	return mp, nil
}

// ParseOTLPHeaders reads the "k1=v1,k2=v2" form of
// OTEL_EXPORTER_OTLP_HEADERS. Pairs without "=" are skipped; nil if none
// remain.
func ParseOTLPHeaders(raw string) map[string]string {
	var result map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if result == nil {
			result = make(map[string]string)
		}

		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return result
}

// parseRatio defaults to sampling everything on a missing or bad argument.
func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 1
	}

	return ratio
}
