package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
)

// Compile validates the registry and edge table against entry and returns an
// immutable graph. It fails on the first violation found, checked in a fixed
// order so the reported error is deterministic:
//
//  1. entry is set and registered
//  2. distinct static targets for one source (domain.ErrConflictingEdge)
//  3. every edge source is registered
//  4. every static target is registered or domain.End
//  5. every declared route target is registered
//
// Nodes without an outgoing edge become terminal leaves: the compiled graph
// routes them to domain.End. Compile never invokes a node.
func Compile(entry string, reg *Registry, edges *EdgeTable) (*CompiledGraph, error) {
	if entry == "" {
		return nil, domain.ErrNoEntryPoint
	}
	nodes := reg.snapshot()
	es := edges.snapshot()

	if _, ok := nodes[entry]; !ok {
		return nil, &domain.UnknownNodeError{ID: entry, Referrer: "entry point"}
	}
	if len(es.conflicts) > 0 {
		return nil, errors.Join(es.conflicts...)
	}

	for _, from := range sortedKeys(es.static) {
		if _, ok := nodes[from]; !ok {
			return nil, &domain.UnknownNodeError{ID: from, Referrer: "edge source"}
		}
		to := es.static[from]
		if to == domain.End {
			continue
		}
		if _, ok := nodes[to]; !ok {
			return nil, &domain.UnknownNodeError{ID: to, Referrer: fmt.Sprintf("edge from %q", from)}
		}
	}
	for _, from := range sortedKeys(es.conditional) {
		if _, ok := nodes[from]; !ok {
			return nil, &domain.UnknownNodeError{ID: from, Referrer: "conditional edge source"}
		}
		for _, to := range es.targets[from] {
			if _, ok := nodes[to]; !ok {
				return nil, &domain.UnknownNodeError{ID: to, Referrer: fmt.Sprintf("route from %q", from)}
			}
		}
	}

	for id := range nodes {
		_, hasStatic := es.static[id]
		_, hasRoute := es.conditional[id]
		if !hasStatic && !hasRoute {
			es.static[id] = domain.End
		}
	}

	return newCompiledGraph(entry, nodes, es.static, es.conditional, es.targets), nil
}
