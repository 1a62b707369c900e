// Package metrics exposes Prometheus counters and histograms for storage
// adapter operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Collector records per-operation metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	errorCounter      *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewCollector creates a collector under the given namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "s3bridge"
	}

	registry := prometheus.NewRegistry()

	operationCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of storage operations by name",
		},
		[]string{"operation"},
	)

	errorCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Total number of failed storage operations by name",
		},
		[]string{"operation"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(operationCounter, errorCounter, operationDuration)

	return &Collector{
		registry:          registry,
		operationCounter:  operationCounter,
		errorCounter:      errorCounter,
		operationDuration: operationDuration,
	}
}

// RecordOperation records one completed operation.
func (c *Collector) RecordOperation(operation string, duration time.Duration, failed bool) {
	c.operationCounter.WithLabelValues(operation).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if failed {
		c.errorCounter.WithLabelValues(operation).Inc()
	}
}

// Handler returns the HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gather exposes the raw metric families, mainly for tests.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}
