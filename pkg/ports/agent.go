package ports

import (
	"context"

	"github.com/aretw0/relay/pkg/domain"
)

// Agent answers the invocation of one graph node.
//
// The returned record's Input and Output are kept as-is; the engine stamps
// the node id. Implementations must honor ctx cancellation.
type Agent interface {
	Invoke(ctx context.Context, call domain.AgentCall) (domain.ExecutionRecord, error)
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc func(ctx context.Context, call domain.AgentCall) (domain.ExecutionRecord, error)

// Invoke calls f.
func (f AgentFunc) Invoke(ctx context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
	return f(ctx, call)
}
