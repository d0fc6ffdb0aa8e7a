package config

import (
	"fmt"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/ports"
)

// Factory turns configured agents into runnable ones.
type Factory interface {
	Agent(cfg Agent, model Model) (ports.Agent, error)
	// Supervisor receives the agents it may route to.
	Supervisor(cfg Supervisor, model Model, routable []*chain.Descriptor) (ports.Agent, error)
}

// Descriptors builds the supervisor and the routable agent descriptors.
// Next links are resolved by id; agents only reachable through Next are
// returned as part of the chains that lead to them.
func (f *File) Descriptors(factory Factory) (*chain.Descriptor, []*chain.Descriptor, error) {
	byID := make(map[string]*chain.Descriptor, len(f.Agents))
	for _, a := range f.Agents {
		agent, err := factory.Agent(a, f.Model.Merge(a.Model))
		if err != nil {
			return nil, nil, fmt.Errorf("agent %q: %w", a.ID, err)
		}
		byID[a.ID] = &chain.Descriptor{ID: a.ID, Description: a.Description, Agent: agent}
	}

	chained := make(map[string]bool)
	for _, a := range f.Agents {
		if a.Next == "" {
			continue
		}
		next, ok := byID[a.Next]
		if !ok {
			return nil, nil, fmt.Errorf("%w: agent %q: next %q is not a configured agent", ErrInvalidConfig, a.ID, a.Next)
		}
		byID[a.ID].Next = next
		chained[a.Next] = true
	}

	var routable []*chain.Descriptor
	for _, a := range f.Agents {
		if isRoutable(a, chained) {
			routable = append(routable, byID[a.ID])
		}
	}
	if len(routable) == 0 {
		return nil, nil, fmt.Errorf("%w: no routable agents", ErrInvalidConfig)
	}

	sup, err := factory.Supervisor(f.Supervisor, f.Model.Merge(f.Supervisor.Model), routable)
	if err != nil {
		return nil, nil, fmt.Errorf("supervisor: %w", err)
	}
	return &chain.Descriptor{ID: f.Supervisor.ID, Agent: sup}, routable, nil
}

func isRoutable(a Agent, chained map[string]bool) bool {
	if a.Routable != nil {
		return *a.Routable
	}
	return !chained[a.ID]
}
