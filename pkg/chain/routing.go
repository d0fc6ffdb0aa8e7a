package chain

import (
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

const (
	markerPrefix = "Agent="
	markerSuffix = ";"
)

// ParseRoute extracts the agent named by a routing marker in output.
// The name runs from the first "Agent=" up to the next ";" or the end of the
// text. ok is false when output carries no marker.
func ParseRoute(output string) (name string, ok bool) {
	i := strings.Index(output, markerPrefix)
	if i < 0 {
		return "", false
	}
	rest := output[i+len(markerPrefix):]
	if j := strings.Index(rest, markerSuffix); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

// FormatRoute renders the marker that routes to name.
func FormatRoute(name string) string {
	return markerPrefix + name + markerSuffix
}

// SupervisorRoute routes on the marker in the latest record's output.
// Without a marker the run ends. Build restricts the route to the chain
// heads, so the executor rejects any other name as an unresolved route.
func SupervisorRoute() graph.RouteFunc {
	return func(acc *domain.StateAccumulator) string {
		name, ok := ParseRoute(acc.Latest().Output)
		if !ok {
			return domain.End
		}
		return name
	}
}
