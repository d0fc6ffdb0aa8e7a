package observability

import (
	"context"
	"errors"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relay"

// Metrics holds the Prometheus collectors fed by engine events.
type Metrics struct {
	NodeInvocations *prometheus.CounterVec
	NodeDuration    *prometheus.HistogramVec
	Routes          *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunHops         prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Registering twice with the same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_invocations_total",
			Help:      "Total number of node invocations by outcome.",
		}, []string{"node_id", "status"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"node_id"}),
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Transitions taken between nodes.",
		}, []string{"from", "to"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"status"}),
		RunHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_hops",
			Help:      "Node invocations per run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}

	var err error
	if m.NodeInvocations, err = register(reg, m.NodeInvocations); err != nil {
		return nil, err
	}
	if m.NodeDuration, err = register(reg, m.NodeDuration); err != nil {
		return nil, err
	}
	if m.Routes, err = register(reg, m.Routes); err != nil {
		return nil, err
	}
	if m.Runs, err = register(reg, m.Runs); err != nil {
		return nil, err
	}
	if m.RunHops, err = register(reg, m.RunHops); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeInvocations.WithLabelValues(e.NodeID, status(e.Err)).Inc()
			m.NodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.Routes.WithLabelValues(e.From, e.To).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues(status(e.Err)).Inc()
			m.RunHops.Observe(float64(e.Hops))
		},
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnresolvedRoute):
		return "unresolved_route"
	case errors.Is(err, domain.ErrGraphCycleExceeded):
		return "cycle_exceeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
