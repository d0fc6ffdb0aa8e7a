package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownNode is returned when an identifier does not name a registered node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrConflictingNode is returned when an identifier is registered twice with different nodes.
	ErrConflictingNode = errors.New("conflicting node registration")

	// ErrDuplicateEdgeKind is returned when a source mixes static and conditional edges.
	ErrDuplicateEdgeKind = errors.New("duplicate edge kind")

	// ErrConflictingEdge is returned when a source has two distinct static targets.
	ErrConflictingEdge = errors.New("conflicting static edge")

	// ErrMissingNodeIdentifier is returned when a node or agent has an empty identifier.
	ErrMissingNodeIdentifier = errors.New("missing node identifier")

	// ErrReservedIdentifier is returned when the terminal marker is used as a node id.
	ErrReservedIdentifier = errors.New("reserved node identifier")

	// ErrNoEntryPoint is returned when a graph is compiled without an entry point.
	ErrNoEntryPoint = errors.New("no entry point")

	// ErrMissingAgent is returned when an agent descriptor has no agent to invoke.
	ErrMissingAgent = errors.New("missing agent")

	// ErrExecution matches any ExecutionError.
	ErrExecution = errors.New("node execution failed")

	// ErrUnresolvedRoute is returned when a routing decision names no registered node.
	ErrUnresolvedRoute = errors.New("unresolved route")

	// ErrGraphCycleExceeded is returned when a run exceeds its hop ceiling.
	ErrGraphCycleExceeded = errors.New("graph cycle exceeded")
)

// UnknownNodeError reports which reference pointed at a missing node.
type UnknownNodeError struct {
	ID       string
	Referrer string
}

func (e *UnknownNodeError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown node %q", e.ID)
	}
	return fmt.Sprintf("unknown node %q (referenced by %s)", e.ID, e.Referrer)
}

func (e *UnknownNodeError) Is(target error) bool { return target == ErrUnknownNode }

// ExecutionError wraps a failure raised by a node's invocation.
type ExecutionError struct {
	NodeID string
	Cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// UnresolvedRouteError reports a routing decision that names no registered node.
type UnresolvedRouteError struct {
	From   string
	Target string
}

func (e *UnresolvedRouteError) Error() string {
	return fmt.Sprintf("unresolved route from %q to %q", e.From, e.Target)
}

func (e *UnresolvedRouteError) Is(target error) bool { return target == ErrUnresolvedRoute }

// CycleExceededError reports a run that hit its hop ceiling.
type CycleExceededError struct {
	Limit int
	Path  []string
}

func (e *CycleExceededError) Error() string {
	return fmt.Sprintf("graph cycle exceeded after %d hops: %s", e.Limit, strings.Join(e.Path, " -> "))
}

func (e *CycleExceededError) Is(target error) bool { return target == ErrGraphCycleExceeded }
