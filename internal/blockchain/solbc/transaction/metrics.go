// internal/blockchain/solbc/transaction/metrics.go
package transaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts payment attempts. Collectors are only registered when a registerer is given.
type Metrics struct {
	submittedCounter  prometheus.Counter
	confirmedCounter  prometheus.Counter
	failureCounter    *prometheus.CounterVec
	durationHistogram prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	submittedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "splitter_payments_submitted_total",
		Help: "Total number of payments broadcast to the network",
	})
	confirmedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "splitter_payments_confirmed_total",
		Help: "Total number of payments that reached the confirmed state",
	})
	failureCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "splitter_payments_failed_total",
		Help: "Total number of payment attempts that ended in the error state",
	}, []string{"kind"})
	durationHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitter_payment_duration_seconds",
		Help:    "Time from build start to a terminal state",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	if reg != nil {
		reg.MustRegister(submittedCounter, confirmedCounter, failureCounter, durationHistogram)
	}

	return &Metrics{
		submittedCounter:  submittedCounter,
		confirmedCounter:  confirmedCounter,
		failureCounter:    failureCounter,
		durationHistogram: durationHistogram,
	}
}

func (tm *Metrics) Submitted() {
	tm.submittedCounter.Inc()
}

func (tm *Metrics) Confirmed(start time.Time) {
	tm.confirmedCounter.Inc()
	tm.TrackTransaction(start)
}

func (tm *Metrics) Failed(kind string, start time.Time) {
	tm.failureCounter.WithLabelValues(kind).Inc()
	tm.TrackTransaction(start)
}

func (tm *Metrics) TrackTransaction(start time.Time) {
	tm.durationHistogram.Observe(time.Since(start).Seconds())
}
