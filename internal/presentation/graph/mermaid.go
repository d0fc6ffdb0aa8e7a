package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// Overlay marks the nodes a run went through.
type Overlay struct {
	Visited []string
	Current string
}

// GenerateMermaid renders a topology as a Mermaid flowchart.
//
// The entry node is drawn as a circle and END as a stadium. Static edges are
// solid arrows and conditional edges dotted ones. A conditional edge without
// a target may reach any other node, so it is drawn to all of them and to END.
func GenerateMermaid(t graph.Topology, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range t.Nodes {
		if id == t.Entry {
			fmt.Fprintf(&sb, "    %s((\"%s\"))\n", mermaidID(id), id)
			continue
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidID(id), id)
	}
	fmt.Fprintf(&sb, "    %s([\"%s\"])\n", mermaidID(domain.End), domain.End)

	for _, e := range t.Edges {
		from := mermaidID(e.From)
		if !e.Conditional {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, mermaidID(e.To))
			continue
		}
		if e.To != "" {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, mermaidID(e.To))
			continue
		}
		for _, id := range t.Nodes {
			if id != e.From {
				fmt.Fprintf(&sb, "    %s -.-> %s\n", from, mermaidID(id))
			}
		}
		fmt.Fprintf(&sb, "    %s -.-> %s\n", from, mermaidID(domain.End))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps labels readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			safe := mermaidID(id)
			if safe != "" && !seen[safe] {
				seen[safe] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safe)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.Current))
		}
	}

	return sb.String()
}

var idReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")

// mermaidID makes id safe as a Mermaid node id. END is a keyword in
// Mermaid flowcharts and gets a suffix.
func mermaidID(id string) string {
	if id == domain.End {
		return "END_"
	}
	return idReplacer.Replace(id)
}
