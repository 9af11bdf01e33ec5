package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/voxel-studio/internal/logging"
)

// Version проставляется через -ldflags при сборке релиза.
var Version = "dev"

// InitTelemetry настраивает OTLP-экспортер трейсов и глобальный TracerProvider.
// Коллектор берётся из OTEL_EXPORTER_OTLP_ENDPOINT (по умолчанию localhost:4318);
// переменная VOXEL_TRACING=off полностью отключает экспорт — удобно на ноутбуке
// без коллектора, спаны тогда уходят в no-op провайдер.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	if os.Getenv("VOXEL_TRACING") == "off" {
		logging.Info("📡 Трассировка отключена (VOXEL_TRACING=off)")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP HTTP, service=%s, version=%s)", serviceName, Version)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}
