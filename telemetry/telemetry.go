// Package telemetry defines the logging, metrics and tracing surface used by
// the accessor cache and the CLI, with Clue/OpenTelemetry and no-op
// implementations.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Metric names recorded by the generation cache.
const (
	MetricCacheHit           = "accessors.cache.hit"
	MetricCacheMiss          = "accessors.cache.miss"
	MetricGenerateDuration   = "accessors.generate.duration"
	MetricGeneratedAccessors = "accessors.generate.accessors"
)

type (
	// Logger emits structured log messages with key-value pairs.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers and gauges. Tags are key-value
	// string pairs.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer starts spans.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
		Span(ctx context.Context) Span
	}

	// Span is an in-flight span.
	//
	//	ctx, span := tracer.Start(ctx, "accessors.generate")
	//	defer span.End()
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, attrs ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}
)
