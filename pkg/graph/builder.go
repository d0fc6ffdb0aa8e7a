package graph

import (
	"errors"
	"fmt"
)

// Builder is a fluent front end over a Registry and an EdgeTable.
// Errors from chained calls are collected and reported by Compile.
type Builder struct {
	registry    *Registry
	edges       *EdgeTable
	entry       string
	buildErrors []error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		registry: NewRegistry(),
		edges:    NewEdgeTable(),
	}
}

// AddNode registers node under id.
func (b *Builder) AddNode(id string, node Node) *Builder {
	if _, err := b.registry.Register(id, node); err != nil {
		b.buildErrors = append(b.buildErrors, err)
	}
	return b
}

// AddEdge registers a static edge.
func (b *Builder) AddEdge(from, to string) *Builder {
	if err := b.edges.AddEdge(from, to); err != nil {
		b.buildErrors = append(b.buildErrors, err)
	}
	return b
}

// AddConditionalEdge registers a routing function for from.
func (b *Builder) AddConditionalEdge(from string, route RouteFunc) *Builder {
	if err := b.edges.AddConditionalEdge(from, route); err != nil {
		b.buildErrors = append(b.buildErrors, err)
	}
	return b
}

// AddRestrictedEdge registers a routing function for from limited to targets.
func (b *Builder) AddRestrictedEdge(from string, route RouteFunc, targets ...string) *Builder {
	if err := b.edges.AddRestrictedEdge(from, route, targets); err != nil {
		b.buildErrors = append(b.buildErrors, err)
	}
	return b
}

// SetEntryPoint sets the node where every run starts.
func (b *Builder) SetEntryPoint(id string) *Builder {
	b.entry = id
	return b
}

// Compile reports collected errors, if any, and compiles the graph.
func (b *Builder) Compile() (*CompiledGraph, error) {
	if len(b.buildErrors) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(b.buildErrors...))
	}
	return Compile(b.entry, b.registry, b.edges)
}
