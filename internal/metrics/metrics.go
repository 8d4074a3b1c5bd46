package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "photopass"

// Collector exports upload and conversion polling metrics. A nil *Collector
// is valid and records nothing.
type Collector struct {
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	uploadDuration prometheus.Histogram
	probes         *prometheus.CounterVec
	polls          *prometheus.CounterVec
	pollAttempts   prometheus.Histogram
}

// NewCollector creates the collectors and registers them with reg. A nil
// registerer falls back to prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes successfully written to the upload bucket.",
		}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Latency of object store writes.",
			Buckets:   prometheus.DefBuckets,
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Converted object probes by result.",
		}, []string{"result"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Conversion polling loops by outcome.",
		}, []string{"outcome"}),
		pollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_attempts",
			Help:      "Probes issued per polling loop.",
			Buckets:   prometheus.LinearBuckets(1, 2, 12),
		}),
	}

	collectors := []prometheus.Collector{
		c.uploads, c.uploadBytes, c.uploadDuration, c.probes, c.polls, c.pollAttempts,
	}
	for i, col := range collectors {
		if err := reg.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				collectors[i] = are.ExistingCollector
				continue
			}
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	c.adoptExisting(collectors)
	return c, nil
}

// adoptExisting swaps in collectors that were already registered under the
// same names, so repeated construction shares one set of series.
func (c *Collector) adoptExisting(cols []prometheus.Collector) {
	if v, ok := cols[0].(*prometheus.CounterVec); ok {
		c.uploads = v
	}
	if v, ok := cols[1].(prometheus.Counter); ok {
		c.uploadBytes = v
	}
	if v, ok := cols[2].(prometheus.Histogram); ok {
		c.uploadDuration = v
	}
	if v, ok := cols[3].(*prometheus.CounterVec); ok {
		c.probes = v
	}
	if v, ok := cols[4].(*prometheus.CounterVec); ok {
		c.polls = v
	}
	if v, ok := cols[5].(prometheus.Histogram); ok {
		c.pollAttempts = v
	}
}

// ObserveUpload records one upload request. bytes and elapsed are only
// counted for successful writes.
func (c *Collector) ObserveUpload(result string, bytes int64, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.uploads.WithLabelValues(result).Inc()
	if result == "success" {
		c.uploadBytes.Add(float64(bytes))
		c.uploadDuration.Observe(elapsed.Seconds())
	}
}

// ObserveProbe records one existence probe.
func (c *Collector) ObserveProbe(result string) {
	if c == nil {
		return
	}
	c.probes.WithLabelValues(result).Inc()
}

// ObservePoll records a finished polling loop.
func (c *Collector) ObservePoll(outcome string, attempts int) {
	if c == nil {
		return
	}
	c.polls.WithLabelValues(outcome).Inc()
	c.pollAttempts.Observe(float64(attempts))
}
