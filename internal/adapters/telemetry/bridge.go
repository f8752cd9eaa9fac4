package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanSink receives the duration of every finished span.
type SpanSink interface {
	ObserveSpan(name, class string, seconds float64, failed bool)
}

// classAttr is the span attribute carrying the asset class.
const classAttr = "kiln.class"

// Bridge implements sdktrace.SpanProcessor to forward finished spans to a SpanSink.
type Bridge struct {
	sink SpanSink
}

// NewBridge returns a new Bridge.
func NewBridge(sink SpanSink) *Bridge {
	return &Bridge{sink: sink}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd reports the span duration, keyed by the span name without its class suffix.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.sink == nil || !s.SpanContext().IsValid() {
		return
	}

	var class string
	for _, kv := range s.Attributes() {
		if string(kv.Key) == classAttr {
			class = kv.Value.AsString()
			break
		}
	}

	name := s.Name()
	if class != "" {
		name = strings.TrimSpace(strings.TrimSuffix(name, class))
	}

	b.sink.ObserveSpan(name, class, s.EndTime().Sub(s.StartTime()).Seconds(), s.Status().Code == codes.Error)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// Setup installs a global tracer provider that feeds finished spans to sink.
func Setup(sink SpanSink) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewBridge(sink)))
	otel.SetTracerProvider(tp)
	return tp
}
