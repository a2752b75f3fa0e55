package otelcol

import (
	"context"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/otelcol/exporters"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("otelcol", fx.Invoke(Register))

// Resource describes this process to the collector.
func Resource(cfg *config.Config) *resource.Resource {
	attrs := resource.NewSchemaless(
		attribute.String("service.name", cfg.AppName),
		attribute.String("service.version", cfg.AppVersion),
		attribute.String("deployment.environment", cfg.AppEnv),
	)
	merged, err := resource.Merge(resource.Default(), attrs)
	if err != nil {
		return attrs
	}
	return merged
}

func ProvideTrace(exporter trace.SpanExporter, opts ...trace.TracerProviderOption) *trace.TracerProvider {
	if len(opts) == 0 {
		opts = []trace.TracerProviderOption{trace.WithResource(resource.Default())}
	}

	opts = append(opts, trace.WithBatcher(exporter))

	return trace.NewTracerProvider(opts...)
}

// Register installs the global tracer provider when OTEL.ENABLE is set. With
// tracing off the global no-op provider stays in place.
func Register(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Otel.Enable {
		zap.L().Info("[Otel] tracing disabled")
		return nil
	}

	exporter, err := exporters.New(cfg)
	if err != nil {
		zap.L().Error("[Otel] failed to create trace exporter", zap.Error(err))
		return err
	}

	tp := ProvideTrace(exporter, trace.WithResource(Resource(cfg)))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	zap.L().Info("[Otel] tracing enabled",
		zap.String("endpoint", cfg.Otel.Endpoint),
		zap.String("protocol", cfg.Otel.Protocol),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return nil
}
