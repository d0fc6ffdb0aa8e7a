package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func says(out string) ports.Agent {
	return ports.AgentFunc(func(context.Context, domain.AgentCall) (domain.ExecutionRecord, error) {
		return domain.ExecutionRecord{Output: out}, nil
	})
}

func TestMetrics_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	g, err := chain.Build(
		&chain.Descriptor{ID: "supervisor", Agent: says("Agent=billing;")},
		[]*chain.Descriptor{{ID: "billing", Agent: says("paid")}},
	)
	require.NoError(t, err)

	_, err = runtime.NewEngine(runtime.WithLifecycleHooks(m.Hooks())).Execute(context.Background(), g, "q")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeInvocations.WithLabelValues("supervisor", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeInvocations.WithLabelValues("billing", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routes.WithLabelValues("supervisor", "billing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routes.WithLabelValues("billing", domain.End)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
}

func TestMetrics_RecordFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	g, err := chain.Build(&chain.Descriptor{ID: "supervisor", Agent: says("Agent=ghost;")}, nil)
	require.NoError(t, err)

	_, err = runtime.NewEngine(runtime.WithLifecycleHooks(m.Hooks())).Execute(context.Background(), g, "q")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("unresolved_route")))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	second.Runs.WithLabelValues("ok").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Runs.WithLabelValues("ok")))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g, err := chain.Build(&chain.Descriptor{ID: "supervisor", Agent: says("hi")}, nil)
	require.NoError(t, err)

	hooks := domain.CombineHooks(observability.LoggingHooks(logger))
	_, err = runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Execute(context.Background(), g, "q")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run_start")
	assert.Contains(t, out, "node_enter")
	assert.Contains(t, out, "to=END")
	assert.Contains(t, out, "run_end")
}
