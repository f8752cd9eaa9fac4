package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
)

type observed struct {
	name   string
	class  string
	failed bool
}

type recordingSink struct {
	mu    sync.Mutex
	spans []observed
}

func (s *recordingSink) ObserveSpan(name, class string, seconds float64, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 {
		panic("negative span duration")
	}
	s.spans = append(s.spans, observed{name: name, class: class, failed: failed})
}

func setupBridge(t *testing.T) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	tp := telemetry.Setup(sink)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sink
}

func TestSetup_BuildSpanIsRecorded(t *testing.T) {
	sink := setupBridge(t)
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	ctx, span := tracer.Start(context.Background(), "build styles",
		ports.WithAttribute("kiln.class", "styles"),
	)
	assert.True(t, trace.SpanFromContext(ctx).IsRecording())
	span.End()

	require.Len(t, sink.spans, 1)
	assert.Equal(t, observed{name: "build", class: "styles"}, sink.spans[0])
}

func TestBridge_FailedAndUnclassedSpans(t *testing.T) {
	sink := setupBridge(t)
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	ctx, all := tracer.Start(context.Background(), "build all")
	_, child := tracer.Start(ctx, "build scripts", ports.WithAttribute("kiln.class", "scripts"))
	child.RecordError(errors.New("syntax error"))
	child.End()
	all.End()

	require.Len(t, sink.spans, 2)
	assert.Equal(t, observed{name: "build", class: "scripts", failed: true}, sink.spans[0])
	assert.Equal(t, observed{name: "build all"}, sink.spans[1])
}

func TestSetup_FeedsMetricsRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	tp := telemetry.Setup(metrics.NewRecorder(reg))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := telemetry.NewOTelTracer(telemetry.InstrumentationName).Start(
		context.Background(), "build images", ports.WithAttribute("kiln.class", "images"))
	span.End()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() != "kiln_span_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["span"] == "build" && labels["class"] == "images" && labels["status"] == "ok" {
				found = m.GetHistogram().GetSampleCount() == 1
			}
		}
	}
	assert.True(t, found, "expected one build/images sample")
}
