package chain

import "github.com/aretw0/relay/pkg/ports"

// DefaultSupervisorID is the node id used for supervisors built from configuration.
const DefaultSupervisorID = "supervisor"

// Descriptor names an agent and the agent that follows it, if any.
type Descriptor struct {
	ID string
	// Description says what the agent does. Supervisors list it in their
	// prompt and responses report it as the agent's function.
	Description string
	Agent       ports.Agent
	Next        *Descriptor
}

// Flatten returns every descriptor reachable from agents through Next links,
// in first-seen order and without duplicates.
func Flatten(agents []*Descriptor) []*Descriptor {
	seen := make(map[*Descriptor]bool)
	var out []*Descriptor
	for _, a := range agents {
		for d := a; d != nil && !seen[d]; d = d.Next {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
