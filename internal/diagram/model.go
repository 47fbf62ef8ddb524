package diagram

// NodeKind classifies a diagram node.
type NodeKind string

const (
	NodeKindInput    NodeKind = "input"
	NodeKindStep     NodeKind = "step"
	NodeKindWorkflow NodeKind = "workflow" // step calling another workflow
	NodeKindOutput   NodeKind = "output"
)

// Direction is the primary flow direction of a diagram.
type Direction string

const (
	TopDown   Direction = "TD"
	LeftRight Direction = "LR"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title     string
	Direction Direction
	Nodes     []*Node
	Edges     []Edge
	Levels    [][]string
}

// Node represents an input, step or output node.
type Node struct {
	ID       string
	Label    string
	Detail   string // operation reference, shown under the label where room allows
	Kind     NodeKind
	Start    bool
	End      bool
	Selected bool
	Invalid  int      // unresolved targets and data references
	Targets  []string // workflows reached through goto actions
}

// EdgeKind mirrors the derived graph's edge kinds.
type EdgeKind string

const (
	EdgeSequential EdgeKind = "sequential"
	EdgeSuccess    EdgeKind = "success"
	EdgeFailure    EdgeKind = "failure"
	EdgeData       EdgeKind = "data"
)

// Edge connects two nodes. Invalid edges are self loops.
type Edge struct {
	From    string
	To      string
	Label   string
	Kind    EdgeKind
	Invalid bool
}
