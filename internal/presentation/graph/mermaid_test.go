package graph_test

import (
	"strings"
	"testing"

	pgraph "github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	topo := graph.Topology{
		Entry: "supervisor",
		Nodes: []string{"billing", "plan-refund", "supervisor"},
		Edges: []graph.Edge{
			{From: "billing", To: "END"},
			{From: "plan-refund", To: "billing"},
			{From: "supervisor", Conditional: true},
		},
	}

	out := pgraph.GenerateMermaid(topo, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	for _, want := range []string{
		`supervisor(("supervisor"))`,
		`plan_refund["plan-refund"]`,
		`END_(["END"])`,
		"billing --> END_",
		"plan_refund --> billing",
		"supervisor -.-> billing",
		"supervisor -.-> plan_refund",
		"supervisor -.-> END_",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "supervisor -.-> supervisor")
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_RouteTargets(t *testing.T) {
	topo := graph.Topology{
		Entry: "supervisor",
		Nodes: []string{"billing", "refunder", "supervisor"},
		Edges: []graph.Edge{
			{From: "billing", To: "refunder"},
			{From: "refunder", To: "END"},
			{From: "supervisor", To: "billing", Conditional: true},
			{From: "supervisor", To: "END", Conditional: true},
		},
	}

	out := pgraph.GenerateMermaid(topo, nil)

	assert.Contains(t, out, "supervisor -.-> billing")
	assert.Contains(t, out, "supervisor -.-> END_")
	assert.Contains(t, out, "billing --> refunder")
	assert.NotContains(t, out, "supervisor -.-> refunder")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	topo := graph.Topology{
		Entry: "supervisor",
		Nodes: []string{"a", "supervisor"},
		Edges: []graph.Edge{{From: "a", To: "END"}, {From: "supervisor", Conditional: true}},
	}

	out := pgraph.GenerateMermaid(topo, &pgraph.Overlay{Visited: []string{"supervisor", "a", "a"}, Current: "a"})

	assert.Contains(t, out, "class supervisor visited;")
	assert.Equal(t, 1, strings.Count(out, "class a visited;"))
	assert.Contains(t, out, "class a current;")
}
