// Package metrics records build and reload activity in Prometheus collectors.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

const namespace = "kiln"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	reg           *prom.Registry
	builds        *prom.CounterVec
	buildDuration *prom.HistogramVec
	savedBytes    *prom.CounterVec
	spanDuration  *prom.HistogramVec
	reloads       prom.Counter
	clients       prom.Gauge
}

// NewRecorder constructs a Recorder and registers its collectors on reg.
// A nil registry gets a fresh one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		builds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Builds by asset class and outcome",
		}, []string{"class", "outcome"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a single class build",
			Buckets:   prom.DefBuckets,
		}, []string{"class"}),
		savedBytes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "saved_bytes_total",
			Help:      "Bytes removed by minification or compression",
		}, []string{"class"}),
		spanDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "span_duration_seconds",
			Help:      "Duration of traced operations",
			Buckets:   prom.DefBuckets,
		}, []string{"span", "class", "status"}),
		reloads: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reload broadcasts sent to browsers",
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected livereload clients",
		}),
	}
	reg.MustRegister(r.builds, r.buildDuration, r.savedBytes, r.spanDuration, r.reloads, r.clients)
	return r
}

// ObserveBuild counts a finished build and records its duration.
func (r *Recorder) ObserveBuild(result domain.BuildResult) {
	if r == nil {
		return
	}
	class := result.Class.String()
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	r.builds.WithLabelValues(class, outcome).Inc()
	r.buildDuration.WithLabelValues(class).Observe(result.Duration.Seconds())
	if result.Sizes != nil && result.Sizes.Saved() > 0 {
		r.savedBytes.WithLabelValues(class).Add(float64(result.Sizes.Saved()))
	}
}

// ObserveSpan records the duration of a finished trace span.
func (r *Recorder) ObserveSpan(name, class string, seconds float64, failed bool) {
	if r == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	r.spanDuration.WithLabelValues(name, class, status).Observe(seconds)
}

// ObserveReload counts a reload broadcast.
func (r *Recorder) ObserveReload() {
	if r == nil {
		return
	}
	r.reloads.Inc()
}

// SetClients records the number of connected livereload clients.
func (r *Recorder) SetClients(n int) {
	if r == nil {
		return
	}
	r.clients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
