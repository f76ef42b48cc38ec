package logstream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments of one Stream. Every method is
// safe on a nil *Metrics, which is what a Stream without metrics carries.
type Metrics struct {
	entriesQueued      *prometheus.CounterVec
	entriesDispatched  prometheus.Counter
	entriesDropped     prometheus.Counter
	callbackFailures   *prometheus.CounterVec
	reconfigurations   prometheus.Counter
	reconfigureSeconds prometheus.Histogram
	queueDepth         prometheus.Gauge
	startupSize        prometheus.Gauge
}

// NewMetrics creates the stream metrics and registers them with registry
// (skipped when registry is nil).
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if registry != nil {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.entriesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logstream_entries_queued_total",
			Help: "Total number of entries accepted into the queue",
		},
		[]string{"priority"},
	)

	m.entriesDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logstream_entries_dispatched_total",
		Help: "Total number of entries handed to the callbacks",
	})

	m.entriesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logstream_entries_dropped_total",
		Help: "Total number of entries dropped because the stream was closed",
	})

	m.callbackFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logstream_callback_failures_total",
			Help: "Total number of callback invocations that panicked or failed to write",
		},
		[]string{"kind"}, // kind: panic, write
	)

	m.reconfigurations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logstream_reconfigurations_total",
		Help: "Total number of stop/mutate/restart reconfiguration transactions",
	})

	m.reconfigureSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logstream_reconfiguration_duration_seconds",
		Help:    "Time spent draining the queue and applying a reconfiguration",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us to ~1.6s
	})

	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logstream_queue_depth",
		Help: "Number of entries waiting for the dispatcher",
	})

	m.startupSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logstream_startup_buffer_entries",
		Help: "Number of entries held for replay to late callbacks",
	})
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.entriesQueued.Describe(ch)
	m.entriesDispatched.Describe(ch)
	m.entriesDropped.Describe(ch)
	m.callbackFailures.Describe(ch)
	m.reconfigurations.Describe(ch)
	m.reconfigureSeconds.Describe(ch)
	m.queueDepth.Describe(ch)
	m.startupSize.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.entriesQueued.Collect(ch)
	m.entriesDispatched.Collect(ch)
	m.entriesDropped.Collect(ch)
	m.callbackFailures.Collect(ch)
	m.reconfigurations.Collect(ch)
	m.reconfigureSeconds.Collect(ch)
	m.queueDepth.Collect(ch)
	m.startupSize.Collect(ch)
}

/////////////////////////////////////////////////////////////////////////////////////////

func (m *Metrics) queued(p Priority, depth int) {
	if m == nil {
		return
	}
	m.entriesQueued.WithLabelValues(p.String()).Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) dispatched() {
	if m == nil {
		return
	}
	m.entriesDispatched.Inc()
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.entriesDropped.Inc()
}

func (m *Metrics) callbackFailed(panicked bool) {
	if m == nil {
		return
	}
	if panicked {
		m.callbackFailures.WithLabelValues("panic").Inc()
	} else {
		m.callbackFailures.WithLabelValues("write").Inc()
	}
}

func (m *Metrics) reconfigured(since time.Time) {
	if m == nil {
		return
	}
	m.reconfigurations.Inc()
	m.reconfigureSeconds.Observe(time.Since(since).Seconds())
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) setStartupSize(n int) {
	if m == nil {
		return
	}
	m.startupSize.Set(float64(n))
}
