// Package metrics exposes run progress to Prometheus. Every collector is
// function-backed and reads the aggregate atomics at scrape time, so workers
// never touch a Prometheus type.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rollsim"

// Source is the aggregate view the collectors read.
type Source interface {
	Completed() uint64
	Max() uint32
}

// ReportSource counts emitted progress lines.
type ReportSource interface {
	Reports() uint64
}

// Metrics owns the run collectors and their registry.
type Metrics struct {
	reg *prometheus.Registry

	completed prometheus.CounterFunc
	target    prometheus.Gauge
	maxZero   prometheus.GaugeFunc
	reports   prometheus.CounterFunc
}

// New registers the run collectors, plus the Go runtime and process
// collectors, on a private registry.
func New(src Source, rep ReportSource, target uint64) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		completed: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_completed_total",
			Help:      "Trials finished so far.",
		}, func() float64 { return float64(src.Completed()) }),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trials_target",
			Help:      "Trials requested for this run.",
		}),
		maxZero: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_outcome_zero",
			Help:      "Largest category-0 count seen in any finished trial.",
		}, func() float64 { return float64(src.Max()) }),
		reports: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "progress_reports_total",
			Help:      "Progress lines printed.",
		}, func() float64 { return float64(rep.Reports()) }),
	}
	m.target.Set(float64(target))

	m.reg.MustRegister(
		m.completed, m.target, m.maxZero, m.reports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	return mux
}

// Listen opens addr for Serve.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return ln, nil
}

// Serve answers scrapes on ln until ctx is done, then shuts down.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
