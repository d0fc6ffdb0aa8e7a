package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestExecutionError_Matching(t *testing.T) {
	cause := errors.New("model unavailable")
	var err error = &domain.ExecutionError{NodeID: "billing", Cause: cause}
	err = fmt.Errorf("run failed: %w", err)

	assert.ErrorIs(t, err, domain.ErrExecution)
	assert.ErrorIs(t, err, cause)

	var execErr *domain.ExecutionError
	if assert.ErrorAs(t, err, &execErr) {
		assert.Equal(t, "billing", execErr.NodeID)
	}
	assert.Contains(t, err.Error(), `node "billing" failed: model unavailable`)
}

func TestExecutionError_PreservesCancellation(t *testing.T) {
	err := &domain.ExecutionError{NodeID: "a", Cause: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	assert.ErrorIs(t, &domain.UnresolvedRouteError{From: "supervisor", Target: "ghost"}, domain.ErrUnresolvedRoute)
	assert.ErrorIs(t, &domain.CycleExceededError{Limit: 3, Path: []string{"a", "b", "a"}}, domain.ErrGraphCycleExceeded)
	assert.ErrorIs(t, &domain.UnknownNodeError{ID: "x"}, domain.ErrUnknownNode)

	assert.NotErrorIs(t, &domain.UnresolvedRouteError{}, domain.ErrUnknownNode)
	assert.Equal(t, "graph cycle exceeded after 3 hops: a -> b -> a",
		(&domain.CycleExceededError{Limit: 3, Path: []string{"a", "b", "a"}}).Error())
	assert.Equal(t, `unknown node "x" (referenced by edge from "a")`,
		(&domain.UnknownNodeError{ID: "x", Referrer: `edge from "a"`}).Error())
}
