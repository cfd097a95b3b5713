package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"
)

const instrumentationName = "goa.design/accessors"

type (
	// ClueLogger logs through goa.design/clue/log. Format and debug
	// settings are read from the context, see LogContext.
	ClueLogger struct{}

	// ClueMetrics records metrics with the global OpenTelemetry meter
	// provider.
	ClueMetrics struct {
		meter metric.Meter
	}

	// ClueTracer starts spans with the global OpenTelemetry tracer
	// provider.
	ClueTracer struct {
		tracer trace.Tracer
	}

	clueSpan struct {
		span trace.Span
	}
)

// NewClueLogger returns a Logger delegating to clue.
func NewClueLogger() Logger { return ClueLogger{} }

// NewClueMetrics returns a Metrics recorder using otel.Meter.
func NewClueMetrics() Metrics {
	return &ClueMetrics{meter: otel.Meter(instrumentationName)}
}

// NewClueTracer returns a Tracer using otel.Tracer.
func NewClueTracer() Tracer {
	return &ClueTracer{tracer: otel.Tracer(instrumentationName)}
}

// LogContext returns ctx configured for clue logging in the named format
// ("terminal", "json" or "text"). An empty format picks terminal output
// when stdout is a terminal and JSON otherwise.
func LogContext(ctx context.Context, format string, debug bool) (context.Context, error) {
	var f log.FormatFunc
	switch format {
	case "":
		f = log.FormatJSON
		if log.IsTerminal() {
			f = log.FormatTerminal
		}
	case "terminal":
		f = log.FormatTerminal
	case "json":
		f = log.FormatJSON
	case "text":
		f = log.FormatText
	default:
		return ctx, fmt.Errorf("unknown log format %q", format)
	}
	ctx = log.Context(ctx, log.WithFormat(f))
	if debug {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx, nil
}

// Debug logs at debug level.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fielders(msg, keyvals)...)
}

// Info logs at info level. Entries are written immediately: clue buffers
// log.Info entries until an error when the context is not traced, which
// would hide cache activity of successful runs.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Print(ctx, fielders(msg, keyvals)...)
}

// Warn logs at warning level after flushing buffered entries.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.FlushAndDisableBuffering(ctx)
	log.Warn(ctx, fielders(msg, keyvals)...)
}

// Error logs at error level. An error value under the "err" key is passed
// to clue as the logged error.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	var err error
	for i := 0; i+1 < len(keyvals); i += 2 {
		if k, ok := keyvals[i].(string); ok && k == "err" {
			err, _ = keyvals[i+1].(error)
		}
	}
	log.Error(ctx, err, fielders(msg, keyvals)...)
}

// IncCounter adds value to the named counter.
func (m *ClueMetrics) IncCounter(name string, value float64, tags ...string) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(tagAttrs(tags)...))
}

// RecordTimer records duration in seconds in the named histogram.
func (m *ClueMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	histogram, err := m.meter.Float64Histogram(name, metric.WithUnit("s"))
	if err != nil {
		return
	}
	histogram.Record(context.Background(), duration.Seconds(), metric.WithAttributes(tagAttrs(tags)...))
}

// RecordGauge records value in the named gauge.
func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...string) {
	gauge, err := m.meter.Float64Gauge(name)
	if err != nil {
		return
	}
	gauge.Record(context.Background(), value, metric.WithAttributes(tagAttrs(tags)...))
}

// Start starts a span as a child of the span in ctx.
func (t *ClueTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &clueSpan{span: span}
}

// Span returns the span carried by ctx.
func (t *ClueTracer) Span(ctx context.Context) Span {
	return &clueSpan{span: trace.SpanFromContext(ctx)}
}

func (s *clueSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *clueSpan) AddEvent(name string, attrs ...any) {
	s.span.AddEvent(name, trace.WithAttributes(kvAttrs(attrs)...))
}

func (s *clueSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

func (s *clueSpan) RecordError(err error, opts ...trace.EventOption) {
	s.span.RecordError(err, opts...)
}

// fielders converts msg and key-value pairs to clue fields. Pairs with a
// non-string key are dropped and a trailing key is paired with nil.
func fielders(msg string, keyvals []any) []log.Fielder {
	fs := []log.Fielder{log.KV{K: "msg", V: msg}}
	for i := 0; i < len(keyvals); i += 2 {
		k, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		fs = append(fs, log.KV{K: k, V: v})
	}
	return fs
}

func tagAttrs(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, (len(tags)+1)/2)
	for i := 0; i < len(tags); i += 2 {
		v := ""
		if i+1 < len(tags) {
			v = tags[i+1]
		}
		attrs = append(attrs, attribute.String(tags[i], v))
	}
	return attrs
}

func kvAttrs(keyvals []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		k, _ := keyvals[i].(string)
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case nil:
			attrs = append(attrs, attribute.String(k, ""))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}
