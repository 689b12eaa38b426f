package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "siteforge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	triggers      *prom.CounterVec
	entries       *prom.CounterVec
	responses     *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		triggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_requests_total",
			Help:      "Rebuild requests by coordinator result",
		}, []string{"result"}),
		entries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entries_processed_total",
			Help:      "Tree entries processed by kind",
		}, []string{"kind"}),
		responses: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "Dev server responses by status code",
		}, []string{"status"}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.triggers, pr.entries, pr.responses)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncTriggerRequest(result TriggerResult) {
	if p == nil {
		return
	}
	p.triggers.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddEntries(kind string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.entries.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) IncHTTPResponse(status int) {
	if p == nil {
		return
	}
	p.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}
