package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the call collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	inflight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "covenant_calls_total",
				Help: "Total number of dispatched calls by terminal",
			},
			[]string{"contract", "method", "terminal"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "covenant_calls_in_flight",
				Help: "Calls currently being dispatched",
			},
			[]string{"contract"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "covenant_call_duration_seconds",
				Help:    "Duration of dispatched calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"contract", "method"},
		),
	}
	m.registry.MustRegister(m.calls, m.inflight, m.duration)
	return m
}

// Registry exposes the underlying registry, e.g. for Go runtime collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every call the dispatcher reports.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInvoke: func(_ context.Context, e *domain.CallEvent) {
			m.inflight.WithLabelValues(e.Contract).Inc()
		},
		OnTerminal: func(_ context.Context, e *domain.CallEvent) {
			m.inflight.WithLabelValues(e.Contract).Dec()
			m.calls.WithLabelValues(e.Contract, e.Method, string(e.Terminal)).Inc()
			m.duration.WithLabelValues(e.Contract, e.Method).Observe(e.Duration.Seconds())
		},
	}
}

// LogHooks writes one line per finished call. Failed calls log at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTerminal: func(ctx context.Context, e *domain.CallEvent) {
			level := slog.LevelInfo
			if e.Terminal.Failed() {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "call_finished",
				"call_id", e.CallID,
				"contract", e.Contract,
				"account", e.Account,
				"method", e.Method,
				"terminal", e.Terminal,
				"duration", e.Duration,
			)
		},
	}
}

// Hooks fans each event out to every set of hooks, in order.
func Hooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInvoke: func(ctx context.Context, e *domain.CallEvent) {
			for _, h := range all {
				if h.OnInvoke != nil {
					h.OnInvoke(ctx, e)
				}
			}
		},
		OnTerminal: func(ctx context.Context, e *domain.CallEvent) {
			for _, h := range all {
				if h.OnTerminal != nil {
					h.OnTerminal(ctx, e)
				}
			}
		},
	}
}
