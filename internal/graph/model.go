package graph

import "github.com/rendis/arazzo-graph/pkg/schema"

// NodeKind classifies a graph node.
type NodeKind string

const (
	NodeKindInput  NodeKind = "input"
	NodeKindStep   NodeKind = "step"
	NodeKindOutput NodeKind = "output"
)

// EdgeKind classifies a graph edge.
type EdgeKind string

const (
	EdgeSequential EdgeKind = "sequential"
	EdgeSuccess    EdgeKind = "success"
	EdgeFailure    EdgeKind = "failure"
	EdgeData       EdgeKind = "data"
)

// Virtual node ids. The structural check rejects steps using them.
const (
	InputNodeID  = schema.InputNodeID
	OutputNodeID = schema.OutputNodeID
)

// Graph is the derived execution graph of one workflow. It is recomputed
// from the document after every change and never edited in place.
type Graph struct {
	WorkflowID  string       `json:"workflowId"`
	Nodes       []*Node      `json:"nodes"`
	Edges       []Edge       `json:"edges"`
	Topo        Topo         `json:"topo"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Node is an input, step or output node.
type Node struct {
	ID    string       `json:"id"`
	Kind  NodeKind     `json:"kind"`
	Label string       `json:"label"`
	Step  *schema.Step `json:"-"`

	Start           bool     `json:"start,omitempty"`
	End             bool     `json:"end,omitempty"`
	InvalidLinks    int      `json:"invalidLinks,omitempty"`
	WorkflowTargets []string `json:"workflowTargets,omitempty"` // gotos into other workflows
}

// Edge connects two nodes. Invalid edges are self loops standing in for a
// goto or retry whose target does not exist.
type Edge struct {
	ID      string   `json:"id"`
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Kind    EdgeKind `json:"kind"`
	Label   string   `json:"label,omitempty"`
	Invalid bool     `json:"invalid,omitempty"`
}

// Topo is the cycle-safe traversal order of the step nodes.
type Topo struct {
	Ordered []string `json:"ordered"`
	Starts  []string `json:"starts"`
	Ends    []string `json:"ends"`
}

// Diagnostic reports a dangling reference found during derivation.
type Diagnostic struct {
	StepID    string `json:"stepId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// EdgesBetween returns every edge from source to target, in graph order.
func (g *Graph) EdgesBetween(source, target string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			out = append(out, e)
		}
	}
	return out
}

// EdgesOfKind returns every edge of kind k.
func (g *Graph) EdgesOfKind(k EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges whose target is id.
func (g *Graph) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}
