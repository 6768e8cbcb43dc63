package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics exposes loop counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	counter    prometheus.Gauge
	paused     prometheus.Gauge
	pauses     prometheus.Counter
	checks     *prometheus.CounterVec
	targetUp   *prometheus.GaugeVec
	relaunches *prometheus.CounterVec
}

// NewMetrics creates the loop metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		counter: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "focusguard_iteration_counter",
			Help: "Checks performed since the last pause",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "focusguard_paused",
			Help: "1 while the monitor is in its cyclic pause",
		}),
		pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusguard_pauses_total",
			Help: "Cyclic pauses entered",
		}),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "focusguard_checks_total",
				Help: "Liveness checks by target",
			},
			[]string{"target"},
		),
		targetUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "focusguard_target_up",
				Help: "1 if the target was running at the last check",
			},
			[]string{"target"},
		),
		relaunches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "focusguard_relaunches_total",
				Help: "Relaunch attempts by target and result",
			},
			[]string{"target", "result"},
		),
	}

	m.registry.MustRegister(m.counter, m.paused, m.pauses, m.checks, m.targetUp, m.relaunches)
	return m
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile atomically writes a text-format snapshot to path, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	metricFamilies, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return os.Rename(tmp, path)
}

func (m *Metrics) setCounter(n int) {
	if m == nil {
		return
	}
	m.counter.Set(float64(n))
}

func (m *Metrics) setPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.paused.Set(1)
		m.pauses.Inc()
		return
	}
	m.paused.Set(0)
}

func (m *Metrics) observeCheck(target string, running bool) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(target).Inc()
	up := 0.0
	if running {
		up = 1
	}
	m.targetUp.WithLabelValues(target).Set(up)
}

func (m *Metrics) observeRelaunch(target string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.relaunches.WithLabelValues(target, result).Inc()
}
