package config

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultOTLPEndpoint = "http://localhost:4318"

// otlpEndpoint is an OTLP/HTTP collector address split the way
// otlptracehttp wants it.
type otlpEndpoint struct {
	HostPort string
	Path     string
	Insecure bool
}

func (e otlpEndpoint) options() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(e.HostPort),
		otlptracehttp.WithURLPath(e.Path),
	}
	if e.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// SetupTracing returns a nil shutdown func when OTEL_TRACES_ENABLED is off.
func SetupTracing(logger *log.Logger) (func(context.Context) error, error) {
	if !utils.IsTracingEnabled() {
		return nil, nil
	}

	ctx := context.Background()
	raw := utils.GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint)

	endpoint, err := parseOTLPEndpoint(raw)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx, endpoint.options()...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	res, err := tracingResource(ctx)
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	ratio := utils.OTelSampleRatio()
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled",
		"service", utils.OTelServiceName(),
		"version", serviceVersion(),
		"endpoint", endpoint.HostPort+endpoint.Path,
		"sample_ratio", ratio,
	)

	return tp.Shutdown, nil
}

// tracingResource layers OTEL_RESOURCE_ATTRIBUTES over the service identity.
func tracingResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", utils.OTelServiceName()),
			attribute.String("service.version", serviceVersion()),
			attribute.String("deployment.environment", deploymentEnvironment()),
		),
		resource.WithFromEnv(),
	)
}

// serviceVersion prefers SERVICE_VERSION, then the module version stamped by
// `go install`, then "dev".
func serviceVersion() string {
	if v := utils.GetEnvTrimmed("SERVICE_VERSION"); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func deploymentEnvironment() string {
	if env := GetAppEnv(); env != "" {
		return env
	}
	return "development"
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
func parseOTLPEndpoint(raw string) (otlpEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpEndpoint{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: a path needs a scheme, e.g. \"http://host:port/path\"", raw)
		}
		return otlpEndpoint{HostPort: raw, Path: "/v1/traces", Insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return otlpEndpoint{}, fmt.Errorf("unsupported OTLP endpoint scheme %q; use http or https", u.Scheme)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = "/v1/traces"
	}

	return otlpEndpoint{HostPort: u.Host, Path: path, Insecure: scheme == "http"}, nil
}
