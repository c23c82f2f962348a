// Package metrics exposes Prometheus collectors for archive streams.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zipstream"

// StreamMetrics contains a set of functions that are invoked on different
// stages of an archive download to report metrics.
type StreamMetrics struct {
	OnStreamStart  func()
	OnStreamFinish func(outcome string, bytes int64, d time.Duration)
	OnNotFound     func()
}

// NewStreamMetrics registers the stream collectors on reg. It returns nil
// when reg is nil; callers treat a nil *StreamMetrics as disabled.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	if reg == nil {
		return nil
	}

	activeStreams := promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "streams_active",
		Help:      "Number of archive downloads currently streaming",
	})

	downloads := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Finished archive downloads by outcome",
	}, []string{"outcome"})

	bytesSent := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_sent_total",
		Help:      "Archive bytes written to clients",
	})

	duration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stream_duration_seconds",
		Help:      "Duration of archive downloads",
		Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
	}, []string{"outcome"})

	notFound := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "not_found_total",
		Help:      "Archive requests for directories that do not exist",
	})

	return &StreamMetrics{
		OnStreamStart: func() {
			activeStreams.Inc()
		},
		OnStreamFinish: func(outcome string, bytes int64, d time.Duration) {
			activeStreams.Dec()
			downloads.WithLabelValues(outcome).Inc()
			bytesSent.Add(float64(bytes))
			duration.WithLabelValues(outcome).Observe(d.Seconds())
		},
		OnNotFound: func() {
			notFound.Inc()
		},
	}
}
