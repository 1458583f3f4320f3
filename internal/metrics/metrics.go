// Package metrics defines the Prometheus metrics exported by the watcher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all metrics.
	Namespace = "exposure_watch"

	subsystemCheck    = "check"
	subsystemSnapshot = "snapshot"
	subsystemNotify   = "notify"
)

// Delivery results.
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// Metrics holds the watcher's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Check metrics
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      prometheus.Histogram
	LastCheckTimestamp prometheus.Gauge
	NewRecordsTotal    prometheus.Counter
	RowErrorsTotal     prometheus.Counter

	// Snapshot metrics
	SnapshotRecords    prometheus.Gauge
	SnapshotSaveErrors prometheus.Counter

	// Notify metrics
	DeliveriesTotal     *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initCheckMetrics(factory)
	m.initSnapshotMetrics(factory)
	m.initNotifyMetrics(factory)

	return m
}

func (m *Metrics) initCheckMetrics(factory promauto.Factory) {
	m.ChecksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCheck,
			Name:      "total",
			Help:      "Total number of checks by outcome",
		},
		[]string{"outcome"},
	)

	m.CheckDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemCheck,
			Name:      "duration_seconds",
			Help:      "Duration of a full check cycle",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.LastCheckTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemCheck,
			Name:      "last_timestamp_seconds",
			Help:      "Unix time the last check finished",
		},
	)

	m.NewRecordsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCheck,
			Name:      "new_records_total",
			Help:      "Total number of new exposure records detected",
		},
	)

	m.RowErrorsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemCheck,
			Name:      "row_errors_total",
			Help:      "Total number of malformed table rows skipped",
		},
	)
}

func (m *Metrics) initSnapshotMetrics(factory promauto.Factory) {
	m.SnapshotRecords = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemSnapshot,
			Name:      "records",
			Help:      "Number of records in the current snapshot",
		},
	)

	m.SnapshotSaveErrors = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemSnapshot,
			Name:      "save_errors_total",
			Help:      "Total number of failed snapshot saves",
		},
	)
}

func (m *Metrics) initNotifyMetrics(factory promauto.Factory) {
	m.DeliveriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemNotify,
			Name:      "deliveries_total",
			Help:      "Total number of record deliveries by result",
		},
		[]string{"result"},
	)

	m.CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemNotify,
			Name:      "circuit_breaker_state",
			Help:      "Current state of a target's circuit breaker (0=closed, 1=open, 2=half-open)",
		},
		[]string{"target"},
	)
}

// RecordCheck records a finished check cycle.
func (m *Metrics) RecordCheck(outcome string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
	m.CheckDuration.Observe(duration.Seconds())
	m.LastCheckTimestamp.Set(float64(finishedAt.Unix()))
}

// RecordParse records the records and row errors of one parse.
func (m *Metrics) RecordParse(newRecords, rowErrors int) {
	if m == nil {
		return
	}
	m.NewRecordsTotal.Add(float64(newRecords))
	m.RowErrorsTotal.Add(float64(rowErrors))
}

// SetSnapshotRecords sets the snapshot size.
func (m *Metrics) SetSnapshotRecords(n int) {
	if m == nil {
		return
	}
	m.SnapshotRecords.Set(float64(n))
}

// RecordSnapshotSaveError counts a failed snapshot save.
func (m *Metrics) RecordSnapshotSaveError() {
	if m == nil {
		return
	}
	m.SnapshotSaveErrors.Inc()
}

// RecordDelivery counts one record delivery attempt.
func (m *Metrics) RecordDelivery(result string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState sets the breaker state for a target.
func (m *Metrics) SetCircuitBreakerState(target string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(target).Set(float64(state))
}
