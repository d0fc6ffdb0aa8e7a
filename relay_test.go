package relay_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordSupervisor routes requests mentioning an agent id to that agent.
func keywordSupervisor(ids ...string) ports.Agent {
	return ports.AgentFunc(func(_ context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
		for _, id := range ids {
			if strings.Contains(call.Input, id) {
				return domain.ExecutionRecord{Output: chain.FormatRoute(id)}, nil
			}
		}
		return domain.ExecutionRecord{Output: "How can I help?"}, nil
	})
}

func answer(prefix string) ports.Agent {
	return ports.AgentFunc(func(_ context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
		return domain.ExecutionRecord{Output: prefix + ": " + call.Input}, nil
	})
}

func newEngine(t *testing.T, opts ...relay.Option) (*relay.Engine, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	review := &chain.Descriptor{ID: "review", Description: "Reviews answers", Agent: answer("reviewed")}
	billing := &chain.Descriptor{ID: "billing", Description: "Handles invoices", Agent: answer("billing"), Next: review}
	support := &chain.Descriptor{ID: "support", Description: "Fixes problems", Agent: answer("support")}

	eng, err := relay.New(
		&chain.Descriptor{ID: chain.DefaultSupervisorID, Agent: keywordSupervisor("billing", "support", "ghost")},
		[]*chain.Descriptor{billing, support},
		append([]relay.Option{relay.WithMemory(mem)}, opts...)...,
	)
	require.NoError(t, err)
	return eng, mem
}

func TestEngine_InvokeRoutesAndPersists(t *testing.T) {
	eng, mem := newEngine(t)
	ctx := context.Background()

	resp, err := eng.Invoke(ctx, domain.Request{Input: "billing question", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "reviewed: billing: billing question", resp.Output)
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []domain.UsedAgent{
		{NodeID: "billing", NodeFunction: "Handles invoices"},
		{NodeID: "review", NodeFunction: "Reviews answers"},
	}, resp.UsedAgents)

	msgs, err := mem.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "billing question", CreatedAt: msgs[0].CreatedAt}, msgs[0])
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Output, msgs[1].Content)
	assert.False(t, msgs[1].CreatedAt.IsZero())
}

func TestEngine_InvokeAnswersDirectly(t *testing.T) {
	eng, _ := newEngine(t)

	resp, err := eng.Invoke(context.Background(), domain.Request{Input: "hello", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "How can I help?", resp.Output)
	assert.Empty(t, resp.UsedAgents)
}

func TestEngine_HistoryReachesAgents(t *testing.T) {
	var seen [][]domain.Message
	sup := ports.AgentFunc(func(_ context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
		seen = append(seen, call.History)
		return domain.ExecutionRecord{Output: "ok " + call.Input}, nil
	})
	eng, err := relay.New(&chain.Descriptor{ID: "supervisor", Agent: sup}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Invoke(ctx, domain.Request{Input: "first", SessionID: "s"})
	require.NoError(t, err)
	_, err = eng.Invoke(ctx, domain.Request{Input: "second", SessionID: "s"})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Empty(t, seen[0])
	require.Len(t, seen[1], 2)
	assert.Equal(t, "first", seen[1][0].Content)
	assert.Equal(t, "ok first", seen[1][1].Content)
}

func TestEngine_FailedRunPersistsNothing(t *testing.T) {
	eng, mem := newEngine(t)
	ctx := context.Background()

	_, err := eng.Invoke(ctx, domain.Request{Input: "ask the ghost", SessionID: "s1"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedRoute)

	msgs, err := mem.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEngine_AgentFailureSurfaces(t *testing.T) {
	boom := errors.New("quota exceeded")
	failing := &chain.Descriptor{ID: "support", Agent: ports.AgentFunc(func(context.Context, domain.AgentCall) (domain.ExecutionRecord, error) {
		return domain.ExecutionRecord{}, boom
	})}
	eng, err := relay.New(&chain.Descriptor{ID: "supervisor", Agent: keywordSupervisor("support")}, []*chain.Descriptor{failing})
	require.NoError(t, err)

	_, err = eng.Invoke(context.Background(), domain.Request{Input: "support please", SessionID: "s"})
	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "support", execErr.NodeID)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_SessionFallbacks(t *testing.T) {
	eng, mem := newEngine(t)
	ctx := context.Background()

	resp, err := eng.Invoke(ctx, domain.Request{Input: "hello", ChatID: "chat-9"})
	require.NoError(t, err)
	assert.Equal(t, "chat-9", resp.SessionID)

	resp, err = eng.Invoke(ctx, domain.Request{Input: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)

	sessions, err := mem.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "chat-9")
	assert.Contains(t, sessions, resp.SessionID)
}

func TestEngine_ConfigurationErrorsAtNew(t *testing.T) {
	_, err := relay.New(&chain.Descriptor{ID: "supervisor", Agent: answer("x")}, []*chain.Descriptor{{Agent: answer("y")}})
	assert.ErrorIs(t, err, domain.ErrMissingNodeIdentifier)

	_, err = relay.New(nil, nil)
	assert.ErrorIs(t, err, domain.ErrMissingNodeIdentifier)
}

func TestEngine_OptionsReachExecutor(t *testing.T) {
	loop := &chain.Descriptor{ID: "loop", Agent: answer("loop")}
	loop.Next = loop

	var entered int
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { entered++ },
	}
	eng, err := relay.New(
		&chain.Descriptor{ID: "supervisor", Agent: keywordSupervisor("loop")},
		[]*chain.Descriptor{loop},
		relay.WithMaxHops(3),
		relay.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)

	_, err = eng.Invoke(context.Background(), domain.Request{Input: "loop", SessionID: "s"})
	assert.ErrorIs(t, err, domain.ErrGraphCycleExceeded)
	assert.Equal(t, 3, entered)
}

func TestEngine_Introspection(t *testing.T) {
	eng, _ := newEngine(t)

	assert.Equal(t, chain.DefaultSupervisorID, eng.Graph().EntryPoint())
	assert.Equal(t, []string{"billing", "review", "supervisor", "support"}, eng.Graph().NodeIDs())

	var ids []string
	for _, a := range eng.Agents() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"billing", "review", "support"}, ids)
	assert.NotEmpty(t, strings.TrimSpace(relay.Version))
}
