package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	fmt.Fprintf(&b, "graph %s\n", direction(model))
	if model.Title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", model.Title)
	}

	for _, node := range model.Nodes {
		fmt.Fprintf(&b, "    %s\n", mermaidNodeDef(node))
	}
	for _, edge := range model.Edges {
		fmt.Fprintf(&b, "    %s\n", mermaidEdge(edge))
	}

	b.WriteString("\n")
	b.WriteString("    classDef start stroke:#2d6a2d,stroke-width:2px\n")
	b.WriteString("    classDef finish stroke:#1a5276,stroke-width:2px\n")
	b.WriteString("    classDef invalid fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
	b.WriteString("    classDef selected fill:#b7791a,stroke:#8a5c14,color:#fff\n")

	for _, node := range model.Nodes {
		if cls := mermaidClass(node); cls != "" {
			fmt.Fprintf(&b, "    class %s %s\n", mermaidSafeID(node.ID), cls)
		}
	}
	return b.String()
}

func direction(model *DiagramModel) Direction {
	if model.Direction == "" {
		return TopDown
	}
	return model.Direction
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(node.Label)

	switch node.Kind {
	case NodeKindInput, NodeKindOutput:
		return fmt.Sprintf("%s([%q])", id, label)
	case NodeKindWorkflow:
		return fmt.Sprintf("%s[[%q]]", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// mermaidEdge draws success and sequential edges solid, failure edges
// dashed and data edges dotted.
func mermaidEdge(edge Edge) string {
	from, to := mermaidSafeID(edge.From), mermaidSafeID(edge.To)
	label := mermaidEscapeLabel(edge.Label)

	switch edge.Kind {
	case EdgeData:
		if label == "" {
			return fmt.Sprintf("%s -.- %s", from, to)
		}
		return fmt.Sprintf("%s -. %s .- %s", from, label, to)
	case EdgeFailure:
		if label == "" {
			return fmt.Sprintf("%s -.-> %s", from, to)
		}
		return fmt.Sprintf("%s -.->|%s| %s", from, label, to)
	default:
		if label == "" {
			return fmt.Sprintf("%s --> %s", from, to)
		}
		return fmt.Sprintf("%s -->|%s| %s", from, label, to)
	}
}

// mermaidClass picks at most one class per node. Selection wins over
// invalid links so the user sees what they picked.
func mermaidClass(node *Node) string {
	switch {
	case node.Selected:
		return "selected"
	case node.Invalid > 0:
		return "invalid"
	case node.Start:
		return "start"
	case node.End:
		return "finish"
	default:
		return ""
	}
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

// mermaidEscapeLabel replaces characters Mermaid treats as syntax.
func mermaidEscapeLabel(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "|", "#124;")
	return r.Replace(s)
}
