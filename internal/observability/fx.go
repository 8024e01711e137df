package observability

import (
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		NewTracerProvider,
		NewMeterProvider,
		NewMetrics,
		func(m *Metrics) eventbus.Recorder { return m },
	),
	fx.Invoke(ensureTracerProvider),
)

func ensureTracerProvider(_ *sdktrace.TracerProvider) {}
