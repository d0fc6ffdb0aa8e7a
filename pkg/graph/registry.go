package graph

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
)

// Registry maps node identifiers to nodes. Nodes cannot be removed.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

// Register adds a node under id and reports whether it was added.
//
// Registering the same node twice under the same id is a silent no-op and
// returns false. Registering a different node under a taken id fails with
// domain.ErrConflictingNode.
func (r *Registry) Register(id string, node Node) (bool, error) {
	if id == "" {
		return false, domain.ErrMissingNodeIdentifier
	}
	if id == domain.End {
		return false, fmt.Errorf("%w: %q", domain.ErrReservedIdentifier, id)
	}
	if node == nil {
		return false, fmt.Errorf("node %q is nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nodes[id]; ok {
		if sameNode(existing, node) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", domain.ErrConflictingNode, id)
	}
	r.nodes[id] = node
	return true, nil
}

// Lookup returns the node registered under id.
func (r *Registry) Lookup(id string) (Node, error) {
	r.mu.RLock()
	node, ok := r.nodes[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.UnknownNodeError{ID: id}
	}
	return node, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[id]
	return ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) snapshot() map[string]Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Node, len(r.nodes))
	for id, n := range r.nodes {
		out[id] = n
	}
	return out
}

// sameNode compares comparable nodes by value and function nodes by code
// pointer. Two closures built from the same literal compare equal.
func sameNode(a, b Node) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if ta.Comparable() {
		return a == b
	}
	return false
}
