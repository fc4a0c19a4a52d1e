package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var phases = []string{"idle", "receiving", "overflowed", "gap_wait", "transmitting"}

// outcomeLabels are pre-registered so every outcome series exists from startup.
var outcomeLabels = []string{"transmitted", "too_short", "overflow_guard"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	recordings   prom.Counter
	overflows    prom.Counter
	outcomes     *prom.CounterVec
	recorded     prom.Histogram
	transmit     prom.Histogram
	transmitting prom.Gauge
	phase        *prom.GaugeVec

	mu        sync.Mutex
	lastPhase string
}

// NewPrometheusRecorder constructs and registers the repeater metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	// Recordings and transmissions are capped at 120 s.
	buckets := []float64{1, 2, 5, 10, 20, 30, 60, 90, 120}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.recordings = prom.NewCounter(prom.CounterOpts{
			Namespace: "parrot",
			Name:      "recordings_total",
			Help:      "Recordings started on receive",
		})
		pr.overflows = prom.NewCounter(prom.CounterOpts{
			Namespace: "parrot",
			Name:      "record_overflows_total",
			Help:      "Recordings frozen at the max record time",
		})
		pr.outcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "parrot",
			Name:      "recording_outcomes_total",
			Help:      "Completed recordings by outcome",
		}, []string{"outcome"})
		pr.recorded = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "parrot",
			Name:      "recorded_seconds",
			Help:      "Untrimmed recording length at end of transmission",
			Buckets:   buckets,
		})
		pr.transmit = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "parrot",
			Name:      "transmit_seconds",
			Help:      "Time the transmitter was keyed per replay",
			Buckets:   buckets,
		})
		pr.transmitting = prom.NewGauge(prom.GaugeOpts{
			Namespace: "parrot",
			Name:      "transmitting",
			Help:      "1 while PTT is asserted",
		})
		pr.phase = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "parrot",
			Name:      "phase",
			Help:      "Current controller phase (1 for the active phase)",
		}, []string{"phase"})
		reg.MustRegister(pr.recordings, pr.overflows, pr.outcomes, pr.recorded, pr.transmit, pr.transmitting, pr.phase)
		for _, o := range outcomeLabels {
			pr.outcomes.WithLabelValues(o)
		}
		for _, p := range phases {
			pr.phase.WithLabelValues(p).Set(0)
		}
	})
	return pr
}

func (p *PrometheusRecorder) IncRecordings() {
	if p == nil || p.recordings == nil {
		return
	}
	p.recordings.Inc()
}

func (p *PrometheusRecorder) IncOverflows() {
	if p == nil || p.overflows == nil {
		return
	}
	p.overflows.Inc()
}

func (p *PrometheusRecorder) IncOutcome(outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRecorded(d time.Duration) {
	if p == nil || p.recorded == nil {
		return
	}
	p.recorded.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveTransmit(d time.Duration) {
	if p == nil || p.transmit == nil {
		return
	}
	p.transmit.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetTransmitting(on bool) {
	if p == nil || p.transmitting == nil {
		return
	}
	if on {
		p.transmitting.Set(1)
	} else {
		p.transmitting.Set(0)
	}
}

// SetPhase is called every poll; the gauges are only touched on change.
func (p *PrometheusRecorder) SetPhase(phase string) {
	if p == nil || p.phase == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if phase == p.lastPhase {
		return
	}
	if p.lastPhase != "" {
		p.phase.WithLabelValues(p.lastPhase).Set(0)
	}
	p.phase.WithLabelValues(phase).Set(1)
	p.lastPhase = phase
}

// HTTPHandler returns an http.Handler that serves metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
