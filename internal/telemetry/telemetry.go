package telemetry

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/slok/gia/internal/log"
)

// NewTracerProvider returns a tracer provider that logs every finished span on the logger.
func NewTracerProvider(logger log.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogSpanProcessor(logger)))
}

// LogSpanProcessor is a span processor that logs the finished spans at debug level.
type LogSpanProcessor struct {
	logger log.Logger
}

// NewLogSpanProcessor creates a new log span processor.
func NewLogSpanProcessor(logger log.Logger) *LogSpanProcessor {
	if logger == nil {
		logger = log.Noop
	}
	return &LogSpanProcessor{logger: logger.WithValues(log.Kv{"svc": "telemetry.LogSpanProcessor"})}
}

func (p *LogSpanProcessor) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

func (p *LogSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	kv := log.Kv{
		"span":     span.Name(),
		"trace-id": span.SpanContext().TraceID().String(),
		"duration": span.EndTime().Sub(span.StartTime()).String(),
	}
	if span.Parent().IsValid() {
		kv["parent-span-id"] = span.Parent().SpanID().String()
	}
	for _, attr := range span.Attributes() {
		kv[string(attr.Key)] = attr.Value.Emit()
	}

	logger := p.logger.WithValues(kv)
	if st := span.Status(); st.Description != "" {
		logger.Debugf("Span ended with error: %s", st.Description)
		return
	}
	logger.Debugf("Span ended")
}

func (p *LogSpanProcessor) Shutdown(context.Context) error { return nil }

func (p *LogSpanProcessor) ForceFlush(context.Context) error { return nil }
