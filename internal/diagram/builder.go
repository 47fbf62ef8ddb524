package diagram

import (
	"strings"

	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
)

// Options controls what Build puts into a model.
type Options struct {
	Title       string
	Selected    string
	HideData    bool
	Orientation layout.Orientation
}

// Build constructs a DiagramModel from a derived graph. Levels follow the
// graph's traversal order with the virtual input and output nodes first and
// last.
func Build(g *graph.Graph, opts Options) *DiagramModel {
	model := &DiagramModel{
		Title:     opts.Title,
		Direction: TopDown,
	}
	if model.Title == "" {
		model.Title = "Workflow " + g.WorkflowID
	}
	if opts.Orientation == layout.Horizontal {
		model.Direction = LeftRight
	}

	for _, n := range g.Nodes {
		model.Nodes = append(model.Nodes, toNode(n, opts.Selected))
	}
	for _, e := range g.Edges {
		if opts.HideData && e.Kind == graph.EdgeData {
			continue
		}
		model.Edges = append(model.Edges, Edge{
			From:    e.Source,
			To:      e.Target,
			Label:   e.Label,
			Kind:    EdgeKind(e.Kind),
			Invalid: e.Invalid,
		})
	}
	model.Levels = buildLevels(g)
	return model
}

func toNode(n *graph.Node, selected string) *Node {
	label, detail, _ := strings.Cut(n.Label, "\n")
	detail = strings.TrimSuffix(strings.TrimPrefix(detail, "("), ")")

	node := &Node{
		ID:       n.ID,
		Label:    label,
		Detail:   detail,
		Start:    n.Start,
		End:      n.End,
		Selected: n.ID == selected,
		Invalid:  n.InvalidLinks,
		Targets:  n.WorkflowTargets,
	}
	switch {
	case n.Kind == graph.NodeKindInput:
		node.Kind = NodeKindInput
	case n.Kind == graph.NodeKindOutput:
		node.Kind = NodeKindOutput
	case n.Step != nil && n.Step.WorkflowID != "":
		node.Kind = NodeKindWorkflow
	default:
		node.Kind = NodeKindStep
	}
	return node
}

func buildLevels(g *graph.Graph) [][]string {
	levels := make([][]string, 0, len(g.Topo.Ordered)+2)
	levels = append(levels, []string{graph.InputNodeID})
	for _, id := range g.Topo.Ordered {
		levels = append(levels, []string{id})
	}
	if g.Node(graph.OutputNodeID) != nil {
		levels = append(levels, []string{graph.OutputNodeID})
	}
	return levels
}

// findNode looks up a node by ID in the model's node list.
func findNode(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
