package graph

import (
	"context"

	"github.com/aretw0/relay/pkg/domain"
)

// Node is one unit of work in a graph. It reads the records accumulated so
// far and produces the next one.
type Node interface {
	Invoke(ctx context.Context, acc *domain.StateAccumulator) (domain.ExecutionRecord, error)
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc func(ctx context.Context, acc *domain.StateAccumulator) (domain.ExecutionRecord, error)

// Invoke calls f.
func (f NodeFunc) Invoke(ctx context.Context, acc *domain.StateAccumulator) (domain.ExecutionRecord, error) {
	return f(ctx, acc)
}

// RouteFunc decides the next node from the accumulated records.
// It must be pure and return a node id or domain.End.
type RouteFunc func(acc *domain.StateAccumulator) string
