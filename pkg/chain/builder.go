package chain

import (
	"context"
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// Option configures a Build.
type Option func(*callContext)

// WithSession sets the session and chat ids passed to every agent.
func WithSession(sessionID, chatID string) Option {
	return func(c *callContext) {
		c.sessionID = sessionID
		c.chatID = chatID
	}
}

// WithHistory sets the prior messages passed to every agent.
func WithHistory(msgs []domain.Message) Option {
	return func(c *callContext) {
		c.history = msgs
	}
}

type callContext struct {
	sessionID string
	chatID    string
	history   []domain.Message
}

type builder struct {
	supervisorID string
	call         *callContext
	registry     *graph.Registry
	edges        *graph.EdgeTable
	wired        map[*Descriptor]bool
}

// Build compiles a graph with supervisor as entry point and a conditional
// edge from it to every agent in agents. Each agent is linked to its Next
// agent, or to domain.End when it has none.
//
// The supervisor may only route to the heads listed in agents. Naming
// itself or an agent reached only through Next is an unresolved route.
//
// Descriptors may be shared between chains and chains may loop back; every
// descriptor is wired once. A loop only fails at run time, when the hop
// ceiling is reached.
func Build(supervisor *Descriptor, agents []*Descriptor, opts ...Option) (*graph.CompiledGraph, error) {
	if supervisor == nil || supervisor.ID == "" {
		return nil, fmt.Errorf("supervisor: %w", domain.ErrMissingNodeIdentifier)
	}
	if supervisor.Agent == nil {
		return nil, fmt.Errorf("supervisor %q: %w", supervisor.ID, domain.ErrMissingAgent)
	}

	call := &callContext{}
	for _, opt := range opts {
		opt(call)
	}
	b := &builder{
		supervisorID: supervisor.ID,
		call:         call,
		registry:     graph.NewRegistry(),
		edges:        graph.NewEdgeTable(),
		wired:        map[*Descriptor]bool{supervisor: true},
	}

	if _, err := b.registry.Register(supervisor.ID, b.node(supervisor)); err != nil {
		return nil, err
	}
	heads := []string{}
	for _, a := range agents {
		if err := b.wire(a); err != nil {
			return nil, err
		}
		if a.ID != supervisor.ID {
			heads = append(heads, a.ID)
		}
	}
	if err := b.edges.AddRestrictedEdge(supervisor.ID, SupervisorRoute(), heads); err != nil {
		return nil, err
	}
	return graph.Compile(supervisor.ID, b.registry, b.edges)
}

func (b *builder) wire(d *Descriptor) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("agent: %w", domain.ErrMissingNodeIdentifier)
	}
	if d.Agent == nil {
		return fmt.Errorf("agent %q: %w", d.ID, domain.ErrMissingAgent)
	}
	if b.wired[d] {
		return nil
	}
	b.wired[d] = true

	if _, err := b.registry.Register(d.ID, b.node(d)); err != nil {
		return fmt.Errorf("agent %q: %w", d.ID, err)
	}
	if d.Next == nil {
		return b.edges.AddEdge(d.ID, domain.End)
	}
	if err := b.wire(d.Next); err != nil {
		return err
	}
	return b.edges.AddEdge(d.ID, d.Next.ID)
}

func (b *builder) node(d *Descriptor) agentNode {
	return agentNode{desc: d, supervisorID: b.supervisorID, call: b.call}
}

// agentNode is comparable so re-registering the same descriptor is a no-op.
type agentNode struct {
	desc         *Descriptor
	supervisorID string
	call         *callContext
}

func (n agentNode) Invoke(ctx context.Context, acc *domain.StateAccumulator) (domain.ExecutionRecord, error) {
	in := n.input(acc)
	rec, err := n.desc.Agent.Invoke(ctx, domain.AgentCall{
		Input:     in,
		SessionID: n.call.sessionID,
		ChatID:    n.call.chatID,
		History:   n.call.history,
	})
	if err != nil {
		return domain.ExecutionRecord{}, err
	}
	if rec.Input == "" {
		rec.Input = in
	}
	return rec, nil
}

// input is the request for the supervisor and for agents it routed to,
// and the previous output for agents further down a chain.
func (n agentNode) input(acc *domain.StateAccumulator) string {
	if n.desc.ID == n.supervisorID || acc.Latest().NodeID == n.supervisorID {
		return acc.First().Input
	}
	return acc.Latest().Output
}
