// Package metrics exports pcd session activity as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
)

// StatusOK is the status label of operations that returned no error.
// Reads that stop at the end of the region also count as ok.
const StatusOK = "ok"

// Metrics holds the Prometheus metrics of one or more devices.
// It implements pcd.Observer.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive  *prometheus.GaugeVec
	SessionsTotal   *prometheus.CounterVec
	OperationsTotal *prometheus.CounterVec
	BytesTotal      *prometheus.CounterVec
}

var _ pcd.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SessionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pcd_sessions_active",
				Help: "Number of currently open sessions",
			},
			[]string{"device"},
		),
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pcd_sessions_total",
				Help: "Total number of sessions opened",
			},
			[]string{"device"},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pcd_operations_total",
				Help: "Total number of session operations by result",
			},
			[]string{"device", "op", "status"},
		),
		BytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pcd_bytes_total",
				Help: "Total number of bytes transferred",
			},
			[]string{"device", "op"},
		),
	}

	registry.MustRegister(
		m.SessionsActive,
		m.SessionsTotal,
		m.OperationsTotal,
		m.BytesTotal,
	)

	return m
}

// SessionOpened implements pcd.Observer.
func (m *Metrics) SessionOpened(device string) {
	m.SessionsActive.WithLabelValues(device).Inc()
	m.SessionsTotal.WithLabelValues(device).Inc()
}

// SessionClosed implements pcd.Observer.
func (m *Metrics) SessionClosed(device string) {
	m.SessionsActive.WithLabelValues(device).Dec()
}

// Operation implements pcd.Observer.
func (m *Metrics) Operation(device, op string, n int, err error) {
	m.OperationsTotal.WithLabelValues(device, op, Status(err)).Inc()
	if n > 0 {
		m.BytesTotal.WithLabelValues(device, op).Add(float64(n))
	}
}

// Status returns the status label for err.
func Status(err error) string {
	if err == nil || errors.Is(err, io.EOF) {
		return StatusOK
	}
	return string(pcd.CodeOf(err))
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
