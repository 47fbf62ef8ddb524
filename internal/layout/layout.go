package layout

import (
	"github.com/rendis/arazzo-graph/internal/graph"
)

// Orientation selects the primary axis.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positions maps node ids to coordinates.
type Positions map[string]Point

// Options controls placement.
type Options struct {
	Origin      Point       `json:"origin" mapstructure:"origin"`
	Pitch       float64     `json:"pitch" mapstructure:"pitch"`               // distance between ranks on the primary axis
	BranchPitch float64     `json:"branchPitch" mapstructure:"branch_pitch"` // lateral distance per branch level
	Orientation Orientation `json:"orientation" mapstructure:"orientation"`
}

// DefaultOptions returns a vertical layout anchored at the origin.
func DefaultOptions() Options {
	return Options{Pitch: 120, BranchPitch: 240, Orientation: Vertical}
}

// Compute places every node of g. Nodes present in prev keep their previous
// position; only new nodes are placed. With a nil prev the result depends
// only on g and opts.
func Compute(g *graph.Graph, prev Positions, opts Options) Positions {
	if opts.Pitch == 0 {
		opts.Pitch = DefaultOptions().Pitch
	}
	if opts.BranchPitch == 0 {
		opts.BranchPitch = DefaultOptions().BranchPitch
	}

	lateral := branchOffsets(g)
	rank := make(map[string]int, len(g.Topo.Ordered))
	for i, id := range g.Topo.Ordered {
		rank[id] = i + 1
	}

	out := make(Positions, len(g.Nodes))
	for _, n := range g.Nodes {
		if p, ok := prev[n.ID]; ok {
			out[n.ID] = p
			continue
		}
		var primary float64
		switch n.Kind {
		case graph.NodeKindInput:
			primary = 0
		case graph.NodeKindOutput:
			primary = float64(len(g.Topo.Ordered)+1) * opts.Pitch
		default:
			primary = float64(rank[n.ID]) * opts.Pitch
		}
		out[n.ID] = place(opts, primary, float64(lateral[n.ID])*opts.BranchPitch)
	}
	return out
}

// Transform maps positions computed for one orientation onto the other by
// swapping axes around the origin.
func Transform(p Positions, origin Point) Positions {
	out := make(Positions, len(p))
	for id, pt := range p {
		out[id] = Point{
			X: origin.X + (pt.Y - origin.Y),
			Y: origin.Y + (pt.X - origin.X),
		}
	}
	return out
}

func place(opts Options, primary, lateral float64) Point {
	if opts.Orientation == Horizontal {
		return Point{X: opts.Origin.X + primary, Y: opts.Origin.Y + lateral}
	}
	return Point{X: opts.Origin.X + lateral, Y: opts.Origin.Y + primary}
}

// branchOffsets assigns each step a lateral level. Steps on a sequential
// chain share their parent's level; steps reached only through gotos sit one
// level beside the parent, positive for success and negative for failure.
func branchOffsets(g *graph.Graph) map[string]int {
	offsets := make(map[string]int, len(g.Topo.Ordered))
	placed := make(map[string]bool, len(g.Topo.Ordered))
	placed[graph.InputNodeID] = true

	for _, id := range g.Topo.Ordered {
		var seqParent, branchParent string
		var branchKind graph.EdgeKind
		for _, e := range g.Incoming(id) {
			if e.Source == id || e.Invalid {
				continue
			}
			switch e.Kind {
			case graph.EdgeSequential:
				if seqParent == "" || seqParent == graph.InputNodeID {
					seqParent = e.Source
				}
			case graph.EdgeSuccess, graph.EdgeFailure:
				if branchParent == "" && placed[e.Source] {
					branchParent, branchKind = e.Source, e.Kind
				}
			}
		}

		switch {
		case seqParent != "":
			offsets[id] = offsets[seqParent]
		case branchParent != "":
			if branchKind == graph.EdgeSuccess {
				offsets[id] = offsets[branchParent] + 1
			} else {
				offsets[id] = offsets[branchParent] - 1
			}
		}
		placed[id] = true
	}
	return offsets
}
