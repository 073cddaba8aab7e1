package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the admission layer.
type Metrics struct {
	admissionChecks *prometheus.CounterVec
	rejections      prometheus.Counter
	charsRecorded   prometheus.Counter
	usagePercent    prometheus.Gauge
	throttleWait    prometheus.Histogram
}

// NewMetrics creates admission metrics registered with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// registry so multiple gates can coexist.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		admissionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_admission_checks_total",
				Help: "Total number of batch admission checks by result and level",
			},
			[]string{"result", "level"},
		),

		rejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rosetta_admission_rejections_total",
				Help: "Total number of batches rejected for exceeding the daily quota",
			},
		),

		charsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rosetta_usage_chars_recorded_total",
				Help: "Total characters recorded against the daily quota",
			},
		),

		usagePercent: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rosetta_usage_percent",
				Help: "Current daily quota usage as a fraction (0.0-1.0)",
			},
		),

		throttleWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rosetta_throttle_wait_seconds",
				Help:    "Time spent waiting on the token bucket before a call",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to 8s
			},
		),
	}
}

// RecordAdmission records an admission decision.
func (m *Metrics) RecordAdmission(allowed bool, level string) {
	result := "admitted"
	if !allowed {
		result = "rejected"
		m.rejections.Inc()
	}
	m.admissionChecks.WithLabelValues(result, level).Inc()
}

// RecordUsage records characters charged to the quota and the resulting
// usage fraction.
func (m *Metrics) RecordUsage(chars int64, percentUsed float64) {
	m.charsRecorded.Add(float64(chars))
	m.usagePercent.Set(percentUsed)
}

// RecordThrottleWait records time spent suspended on the token bucket.
func (m *Metrics) RecordThrottleWait(seconds float64) {
	m.throttleWait.Observe(seconds)
}
