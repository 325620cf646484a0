// Package metrics records Prometheus metrics for compilation runs and
// exports them to a node_exporter textfile.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/obmalloy/compiler"
)

// Compilation statuses used as label values.
const (
	StatusOK      = "ok"
	StatusErrors  = "errors"
	StatusAborted = "aborted"
)

// Collector holds the compilation metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	CompilationsTotal   *prometheus.CounterVec
	CompilationDuration prometheus.Histogram
	MessagesTotal       *prometheus.CounterVec
	Signatures          prometheus.Gauge
	Facts               prometheus.Gauge
	OutputsTotal        *prometheus.CounterVec
}

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	factory := promauto.With(c.registry)

	c.CompilationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obmalloy_compilations_total",
			Help: "Total number of compilation runs by status",
		},
		[]string{"status"},
	)
	c.CompilationDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "obmalloy_compilation_duration_seconds",
			Help:    "Compilation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)
	c.MessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obmalloy_messages_total",
			Help: "Total number of compilation messages by severity",
		},
		[]string{"severity"},
	)
	c.Signatures = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "obmalloy_signatures",
			Help: "Number of signatures produced by the last compilation",
		},
	)
	c.Facts = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "obmalloy_facts",
			Help: "Number of facts produced by the last compilation",
		},
	)
	c.OutputsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obmalloy_outputs_total",
			Help: "Total number of constraint files written by format and status",
		},
		[]string{"format", "status"},
	)

	return c
}

// Registry returns the Prometheus registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveCompile records one compilation run.
func (c *Collector) ObserveCompile(res *compiler.Result, elapsed time.Duration, err error) {
	status := StatusOK
	switch {
	case err != nil:
		status = StatusAborted
	case res != nil && res.HasErrors():
		status = StatusErrors
	}
	c.CompilationsTotal.WithLabelValues(status).Inc()
	c.CompilationDuration.Observe(elapsed.Seconds())

	if res == nil {
		return
	}
	for _, m := range res.Messages {
		c.MessagesTotal.WithLabelValues(string(m.Severity)).Inc()
	}
	if err == nil && res.Signatures != nil {
		c.Signatures.Set(float64(res.Signatures.Len()))
		c.Facts.Set(float64(res.Signatures.FactCount()))
	}
}

// ObserveOutput records one attempt to write a constraint file.
func (c *Collector) ObserveOutput(format string, err error) {
	status := StatusOK
	if err != nil {
		status = "failed"
	}
	c.OutputsTotal.WithLabelValues(format, status).Inc()
}

// WriteToTextfile writes the metrics in the text exposition format, for
// the node_exporter textfile collector.
func (c *Collector) WriteToTextfile(path string) error {
	if path == "" {
		return errors.New("metrics textfile path is empty")
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
