package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Metrics exposes application-level instruments. It implements
// eventbus.Recorder so bus activity shows up without the bus importing
// this package.
type Metrics struct {
	eventsEmitted   metric.Int64Counter
	eventsDropped   metric.Int64Counter
	handlerFailures metric.Int64Counter
	intakeAllowed   metric.Int64Counter
	intakeDenied    metric.Int64Counter
}

// NewMeterProvider configures and registers the global meter provider.
func NewMeterProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.OtelEnabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newMetricExporter(cfg.OtelExporterProtocol, cfg.OtelExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down meter provider")
			return provider.Shutdown(ctx)
		},
	})

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.OtelExporterEndpoint),
		zap.String("protocol", cfg.OtelExporterProtocol),
	)
	return provider, nil
}

// NewMetrics configures the domain instruments.
func NewMetrics(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "opsdesk"
	}
	meter := provider.Meter(name)

	eventsEmitted, err := meter.Int64Counter("opsdesk_events_emitted_total")
	if err != nil {
		return nil, err
	}
	eventsDropped, err := meter.Int64Counter("opsdesk_events_dropped_total")
	if err != nil {
		return nil, err
	}
	handlerFailures, err := meter.Int64Counter("opsdesk_event_handler_failures_total")
	if err != nil {
		return nil, err
	}
	intakeAllowed, err := meter.Int64Counter("opsdesk_public_intake_allowed_total")
	if err != nil {
		return nil, err
	}
	intakeDenied, err := meter.Int64Counter("opsdesk_public_intake_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		eventsEmitted:   eventsEmitted,
		eventsDropped:   eventsDropped,
		handlerFailures: handlerFailures,
		intakeAllowed:   intakeAllowed,
		intakeDenied:    intakeDenied,
	}, nil
}

func (m *Metrics) EventEmitted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.eventsEmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) EventDropped(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) HandlerFailed(ctx context.Context, kind, handler string) {
	if m == nil {
		return
	}
	m.handlerFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("handler", handler),
	))
}

// RecordIntakeAllowed increments public intake admission counts.
func (m *Metrics) RecordIntakeAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.intakeAllowed.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordIntakeDenied increments public intake rejection counts.
func (m *Metrics) RecordIntakeDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.intakeDenied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("reason", reason),
	))
}

func newMetricExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
