package runtime

import (
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// resolveNext picks the node that follows current.
// Conditional decisions must be allowed by g: domain.End, or a node the
// route may reach.
func resolveNext(g *graph.CompiledGraph, current string, acc *domain.StateAccumulator) (string, error) {
	if route, ok := g.Router(current); ok {
		target := route(acc)
		if !g.Allows(current, target) {
			return "", &domain.UnresolvedRouteError{From: current, Target: target}
		}
		return target, nil
	}

	if to, ok := g.Successor(current); ok {
		return to, nil
	}
	// Compile materializes an edge for every node; reaching here means a
	// graph built outside Compile.
	return domain.End, nil
}
