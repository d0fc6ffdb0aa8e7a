package runtime_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upper transforms the latest output, or the request for the first hop.
func upper(ctx context.Context, acc *domain.StateAccumulator) (domain.ExecutionRecord, error) {
	in := acc.Latest().Output
	if acc.Len() == 1 {
		in = acc.First().Input
	}
	return domain.ExecutionRecord{Input: in, Output: strings.ToUpper(in) + "!"}, nil
}

func TestExecute_LinearChain(t *testing.T) {
	g, err := graph.NewBuilder().
		AddNode("a", graph.NodeFunc(upper)).
		AddNode("b", graph.NodeFunc(upper)).
		AddEdge("a", "b").
		AddEdge("b", domain.End).
		SetEntryPoint("a").
		Compile()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Execute(context.Background(), g, "hi")
	require.NoError(t, err)

	assert.Equal(t, "HI!!", res.Final.Output)
	assert.Equal(t, "b", res.Final.NodeID)
	assert.Equal(t, []string{"a", "b"}, res.Path)
	assert.Equal(t, 2, res.Hops)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, res.Records, 3)
	assert.Equal(t, "hi", res.Records[0].Input)
	assert.Equal(t, domain.StartNodeID, res.Records[0].NodeID)
	assert.Equal(t, "HI!", res.Records[1].Output)
}

func TestExecute_ConditionalRouting(t *testing.T) {
	route := func(acc *domain.StateAccumulator) string {
		if strings.Contains(acc.First().Input, "refund") {
			return "billing"
		}
		return domain.End
	}
	g, err := graph.NewBuilder().
		AddNode("router", graph.NodeFunc(upper)).
		AddNode("billing", graph.NodeFunc(upper)).
		AddConditionalEdge("router", route).
		SetEntryPoint("router").
		Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine()

	res, err := engine.Execute(context.Background(), g, "refund please")
	require.NoError(t, err)
	assert.Equal(t, []string{"router", "billing"}, res.Path)

	res, err = engine.Execute(context.Background(), g, "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"router"}, res.Path)
	assert.Equal(t, "HELLO!", res.Final.Output)
}

func TestExecute_UsesDeterministicRunIDs(t *testing.T) {
	g, err := graph.NewBuilder().AddNode("a", graph.NodeFunc(upper)).SetEntryPoint("a").Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithRunIDGenerator(func() string { return "run-1" }))
	res, err := engine.Execute(context.Background(), g, "x")
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
}

func TestExecute_DebugLogging(t *testing.T) {
	g, err := graph.NewBuilder().AddNode("a", graph.NodeFunc(upper)).SetEntryPoint("a").Compile()
	require.NoError(t, err)

	var buf strings.Builder
	engine := runtime.NewEngine(runtime.WithLogger(newTestLogger(&buf)), runtime.WithDebug(true))
	_, err = engine.Execute(context.Background(), g, "secret")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "SECRET!")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestExecute_DebugLoggingLevel(t *testing.T) {
	g, err := graph.NewBuilder().AddNode("a", graph.NodeFunc(upper)).SetEntryPoint("a").Compile()
	require.NoError(t, err)

	t.Run("Hidden Above Debug", func(t *testing.T) {
		var buf strings.Builder
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		_, err := runtime.NewEngine(runtime.WithLogger(logger), runtime.WithDebug(true)).
			Execute(context.Background(), g, "secret")
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), "SECRET!")
	})

	t.Run("Contents Need Debug Flag", func(t *testing.T) {
		var buf strings.Builder
		_, err := runtime.NewEngine(runtime.WithLogger(newTestLogger(&buf))).
			Execute(context.Background(), g, "secret")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "node completed")
		assert.NotContains(t, buf.String(), "SECRET!")
	})
}
