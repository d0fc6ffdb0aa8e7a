package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
)

// EdgeTable maps each source node to at most one outgoing edge.
type EdgeTable struct {
	mu          sync.RWMutex
	static      map[string]string
	conditional map[string]RouteFunc
	// targets restricts the decisions of a conditional edge, when declared.
	targets map[string][]string
	// conflicts holds distinct static targets registered for one source.
	// They are reported by Compile.
	conflicts []error
}

// NewEdgeTable creates an empty edge table.
func NewEdgeTable() *EdgeTable {
	return &EdgeTable{
		static:      make(map[string]string),
		conditional: make(map[string]RouteFunc),
		targets:     make(map[string][]string),
	}
}

// AddEdge registers a static edge. Adding the same edge twice is a no-op.
// It fails with domain.ErrDuplicateEdgeKind when from already has a
// conditional edge. A second, different target for from is recorded and
// fails compilation with domain.ErrConflictingEdge.
func (t *EdgeTable) AddEdge(from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("edge %q -> %q: %w", from, to, domain.ErrMissingNodeIdentifier)
	}
	if from == domain.End {
		return fmt.Errorf("edge source %w: %q", domain.ErrReservedIdentifier, from)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conditional[from]; ok {
		return fmt.Errorf("%w: %q already has a conditional edge", domain.ErrDuplicateEdgeKind, from)
	}
	if existing, ok := t.static[from]; ok {
		if existing != to {
			t.conflicts = append(t.conflicts,
				fmt.Errorf("%w: %q -> %q and %q -> %q", domain.ErrConflictingEdge, from, existing, from, to))
		}
		return nil
	}
	t.static[from] = to
	return nil
}

// AddConditionalEdge registers a routing function for from. Registering
// again for the same source replaces the previous function and lifts any
// restriction. It fails with domain.ErrDuplicateEdgeKind when from already
// has a static edge.
func (t *EdgeTable) AddConditionalEdge(from string, route RouteFunc) error {
	return t.addConditional(from, route, nil)
}

// AddRestrictedEdge registers a routing function for from that may only
// decide one of targets or domain.End. Any other decision is an unresolved
// route at run time. An empty targets list only allows domain.End.
// Replacement and kind rules are those of AddConditionalEdge.
func (t *EdgeTable) AddRestrictedEdge(from string, route RouteFunc, targets []string) error {
	return t.addConditional(from, route, append([]string{}, targets...))
}

func (t *EdgeTable) addConditional(from string, route RouteFunc, targets []string) error {
	if from == "" {
		return fmt.Errorf("conditional edge: %w", domain.ErrMissingNodeIdentifier)
	}
	if from == domain.End {
		return fmt.Errorf("edge source %w: %q", domain.ErrReservedIdentifier, from)
	}
	if route == nil {
		return fmt.Errorf("conditional edge from %q has no route function", from)
	}
	for _, to := range targets {
		if to == "" || to == domain.End {
			return fmt.Errorf("route target from %q %w: %q", from, domain.ErrReservedIdentifier, to)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.static[from]; ok {
		return fmt.Errorf("%w: %q already has a static edge", domain.ErrDuplicateEdgeKind, from)
	}
	t.conditional[from] = route
	if targets != nil {
		t.targets[from] = targets
	} else {
		delete(t.targets, from)
	}
	return nil
}

// Static returns the static target of from.
func (t *EdgeTable) Static(from string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	to, ok := t.static[from]
	return to, ok
}

// IsConditional reports whether from has a conditional edge.
func (t *EdgeTable) IsConditional(from string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.conditional[from]
	return ok
}

type edgeSnapshot struct {
	static      map[string]string
	conditional map[string]RouteFunc
	targets     map[string][]string
	conflicts   []error
}

func (t *EdgeTable) snapshot() edgeSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := edgeSnapshot{
		static:      make(map[string]string, len(t.static)),
		conditional: make(map[string]RouteFunc, len(t.conditional)),
		targets:     make(map[string][]string, len(t.targets)),
		conflicts:   append([]error(nil), t.conflicts...),
	}
	for k, v := range t.static {
		s.static[k] = v
	}
	for k, v := range t.conditional {
		s.conditional[k] = v
	}
	for k, v := range t.targets {
		s.targets[k] = append([]string(nil), v...)
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
