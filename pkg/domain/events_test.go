package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCombineHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { calls = append(calls, "a:"+e.NodeID) },
	}
	b := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { calls = append(calls, "b:"+e.NodeID) },
		OnRoute:     func(_ context.Context, e *domain.RouteEvent) { calls = append(calls, "route:"+e.To) },
	}

	h := domain.CombineHooks(a, domain.LifecycleHooks{}, b)
	h.OnNodeEnter(context.Background(), &domain.NodeEvent{NodeID: "n"})
	h.OnRoute(context.Background(), &domain.RouteEvent{To: domain.End})

	assert.Equal(t, []string{"a:n", "b:n", "route:END"}, calls)
	assert.Nil(t, h.OnRunStart)
}
