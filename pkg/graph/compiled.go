package graph

import (
	"sort"

	"github.com/aretw0/relay/pkg/domain"
)

// CompiledGraph is an immutable, executable graph produced by Compile.
// It is safe for concurrent use by multiple runs.
type CompiledGraph struct {
	entry       string
	nodes       map[string]Node
	static      map[string]string
	conditional map[string]RouteFunc
	// targets holds the sorted, allowed decisions of restricted routes.
	targets map[string][]string
	ids     []string
}

func newCompiledGraph(entry string, nodes map[string]Node, static map[string]string, conditional map[string]RouteFunc, targets map[string][]string) *CompiledGraph {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for from, to := range targets {
		targets[from] = uniqueSorted(to)
	}
	return &CompiledGraph{
		entry:       entry,
		nodes:       nodes,
		static:      static,
		conditional: conditional,
		targets:     targets,
		ids:         ids,
	}
}

func uniqueSorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}

// EntryPoint returns the entry node id.
func (g *CompiledGraph) EntryPoint() string { return g.entry }

// NodeIDs returns all node ids in sorted order.
func (g *CompiledGraph) NodeIDs() []string {
	return append([]string(nil), g.ids...)
}

// HasNode reports whether id is a node of the graph. domain.End is not a node.
func (g *CompiledGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node registered under id.
func (g *CompiledGraph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Successor returns the static target of id. Terminal leaves report domain.End.
func (g *CompiledGraph) Successor(id string) (string, bool) {
	to, ok := g.static[id]
	return to, ok
}

// Router returns the routing function of id when its edge is conditional.
func (g *CompiledGraph) Router(id string) (RouteFunc, bool) {
	r, ok := g.conditional[id]
	return r, ok
}

// IsConditional reports whether id routes through a conditional edge.
func (g *CompiledGraph) IsConditional(id string) bool {
	_, ok := g.conditional[id]
	return ok
}

// Targets returns the decisions the route of id is restricted to. ok is
// false when the route is unrestricted or id has no conditional edge.
func (g *CompiledGraph) Targets(id string) (targets []string, ok bool) {
	to, ok := g.targets[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), to...), true
}

// Allows reports whether the route of from may decide target.
// domain.End is always allowed; otherwise target must be a node and, for a
// restricted route, one of its targets.
func (g *CompiledGraph) Allows(from, target string) bool {
	if target == domain.End {
		return true
	}
	if !g.HasNode(target) {
		return false
	}
	to, restricted := g.targets[from]
	if !restricted {
		return true
	}
	i := sort.SearchStrings(to, target)
	return i < len(to) && to[i] == target
}

// Edge is one entry of the graph's topology.
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Conditional bool   `json:"conditional,omitempty"`
}

// Topology describes the shape of a compiled graph for presentation.
type Topology struct {
	Entry string   `json:"entry"`
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Topology returns the nodes and edges of the graph in sorted order.
// A restricted route is listed as one conditional edge per target plus one
// to domain.End. An unrestricted route has no fixed target and is listed
// once with an empty To.
func (g *CompiledGraph) Topology() Topology {
	t := Topology{Entry: g.entry, Nodes: g.NodeIDs()}
	for _, id := range g.ids {
		if g.IsConditional(id) {
			to, restricted := g.targets[id]
			if !restricted {
				t.Edges = append(t.Edges, Edge{From: id, Conditional: true})
				continue
			}
			for _, target := range to {
				t.Edges = append(t.Edges, Edge{From: id, To: target, Conditional: true})
			}
			t.Edges = append(t.Edges, Edge{From: id, To: domain.End, Conditional: true})
			continue
		}
		t.Edges = append(t.Edges, Edge{From: id, To: g.static[id]})
	}
	return t
}

// Terminal reports whether id ends the run when its edge is static.
func (g *CompiledGraph) Terminal(id string) bool {
	return g.static[id] == domain.End
}
