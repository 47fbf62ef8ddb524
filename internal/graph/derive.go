package graph

import (
	"fmt"
	"strconv"

	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// Diagnostic codes.
const (
	DiagInvalidTarget = "INVALID_TARGET"
	DiagDanglingData  = "DANGLING_DATA"
)

// Options controls derivation.
type Options struct {
	// HideFailureEdges omits failure edges from the result. Adjacency, start
	// and end classification and invalid-link counts are unaffected.
	HideFailureEdges bool
}

// Derive builds the execution graph of the workflow with the given id.
// It fails when the workflow does not exist or its step ids are empty,
// reserved or repeated; malformed navigation targets degrade to invalid
// edges and diagnostics.
func Derive(doc *schema.Document, workflowID string, opts Options) (*Graph, error) {
	if doc == nil {
		return nil, schema.NewError(schema.ErrCodeNotFound, "document is nil")
	}
	wf, err := doc.FindWorkflow(workflowID)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	if err := schema.CheckWorkflowSteps(wf); err != nil {
		return nil, fmt.Errorf("graph: workflow %q: %w", workflowID, err)
	}
	return DeriveWorkflow(wf, opts), nil
}

// DeriveWorkflow builds the execution graph of wf. It never fails; callers
// holding unchecked input go through Derive.
func DeriveWorkflow(wf *schema.Workflow, opts Options) *Graph {
	d := newDeriver(wf)
	d.buildAdjacency()

	g := &Graph{WorkflowID: wf.WorkflowID}
	g.Topo = d.order()

	nodes := make(map[string]*Node, len(wf.Steps))
	g.Nodes = append(g.Nodes, &Node{ID: InputNodeID, Kind: NodeKindInput, Label: "Inputs"})
	for i := range wf.Steps {
		step := &wf.Steps[i]
		n := &Node{ID: step.StepID, Kind: NodeKindStep, Label: stepLabel(step), Step: step}
		nodes[step.StepID] = n
		g.Nodes = append(g.Nodes, n)
	}
	hasOutput := len(wf.Outputs) > 0
	if hasOutput {
		g.Nodes = append(g.Nodes, &Node{ID: OutputNodeID, Kind: NodeKindOutput, Label: "Outputs"})
	}
	for _, id := range g.Topo.Starts {
		nodes[id].Start = true
		g.Edges = append(g.Edges, Edge{ID: InputNodeID + "->" + id, Source: InputNodeID, Target: id, Kind: EdgeSequential})
	}
	for _, id := range g.Topo.Ends {
		nodes[id].End = true
	}

	for i := range wf.Steps {
		step := &wf.Steps[i]
		node := nodes[step.StepID]

		if next, ok := d.sequentialNext(i); ok {
			g.Edges = append(g.Edges, Edge{
				ID: "seq:" + step.StepID + "->" + next, Source: step.StepID, Target: next, Kind: EdgeSequential,
			})
		}
		g.Edges = append(g.Edges, d.actionEdges(node, step.OnSuccess, EdgeSuccess, &g.Diagnostics)...)
		failure := d.actionEdges(node, step.OnFailure, EdgeFailure, &g.Diagnostics)
		if !opts.HideFailureEdges {
			g.Edges = append(g.Edges, failure...)
		}
		g.Edges = append(g.Edges, d.dataEdges(node, step, &g.Diagnostics)...)
	}

	if hasOutput {
		for _, id := range g.Topo.Ends {
			g.Edges = append(g.Edges, Edge{ID: id + "->" + OutputNodeID, Source: id, Target: OutputNodeID, Kind: EdgeSequential})
		}
	}
	return g
}

type deriver struct {
	wf    *schema.Workflow
	index map[string]int

	succ        map[string][]string // control adjacency
	pred        map[string][]string
	successPath map[string][]string // sequential + success gotos, for end classification
}

func newDeriver(wf *schema.Workflow) *deriver {
	index := make(map[string]int, len(wf.Steps))
	for i, s := range wf.Steps {
		if _, dup := index[s.StepID]; !dup {
			index[s.StepID] = i
		}
	}
	return &deriver{
		wf:          wf,
		index:       index,
		succ:        make(map[string][]string),
		pred:        make(map[string][]string),
		successPath: make(map[string][]string),
	}
}

func (d *deriver) exists(id string) bool {
	_, ok := d.index[id]
	return ok
}

// terminatesFallthrough reports whether a step's success list overrides the
// implicit move to the next step: any concrete goto (valid or not, local or to
// another workflow) or an end action.
func terminatesFallthrough(step *schema.Step) bool {
	for _, a := range step.OnSuccess.Concrete() {
		if a.Type == schema.ActionGoto || a.Type == schema.ActionEnd {
			return true
		}
	}
	return false
}

// sequentialNext returns the implicit successor of the step at index i.
func (d *deriver) sequentialNext(i int) (string, bool) {
	if i+1 >= len(d.wf.Steps) || terminatesFallthrough(&d.wf.Steps[i]) {
		return "", false
	}
	return d.wf.Steps[i+1].StepID, true
}

func (d *deriver) link(from, to string, successPath bool) {
	if from == to {
		return
	}
	d.succ[from] = append(d.succ[from], to)
	d.pred[to] = append(d.pred[to], from)
	if successPath {
		d.successPath[from] = append(d.successPath[from], to)
	}
}

func (d *deriver) buildAdjacency() {
	for i := range d.wf.Steps {
		step := &d.wf.Steps[i]
		if next, ok := d.sequentialNext(i); ok {
			d.link(step.StepID, next, true)
		}
		for _, a := range step.OnSuccess.Concrete() {
			if a.Type == schema.ActionGoto && a.Navigates() && d.exists(a.StepID) {
				d.link(step.StepID, a.StepID, true)
			}
		}
		for _, a := range step.OnFailure.Concrete() {
			if a.Navigates() {
				if target := a.TargetFor(step.StepID); d.exists(target) {
					d.link(step.StepID, target, false)
				}
			}
		}
	}
}

// order runs a visited-set BFS from the start steps and appends unreached
// steps in document order, so Ordered always holds every step.
func (d *deriver) order() Topo {
	topo := Topo{Ordered: []string{}, Starts: []string{}, Ends: []string{}}
	for _, s := range d.wf.Steps {
		if len(d.pred[s.StepID]) == 0 {
			topo.Starts = append(topo.Starts, s.StepID)
		}
		if len(d.successPath[s.StepID]) == 0 {
			topo.Ends = append(topo.Ends, s.StepID)
		}
	}
	if len(topo.Starts) == 0 {
		for _, s := range d.wf.Steps {
			topo.Starts = append(topo.Starts, s.StepID)
		}
	}

	visited := make(map[string]bool, len(d.wf.Steps))
	queue := make([]string, 0, len(d.wf.Steps))
	for _, id := range topo.Starts {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		topo.Ordered = append(topo.Ordered, id)
		for _, next := range d.succ[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, s := range d.wf.Steps {
		if !visited[s.StepID] {
			visited[s.StepID] = true
			topo.Ordered = append(topo.Ordered, s.StepID)
		}
	}
	return topo
}

// actionEdges emits one edge per navigating action in items. Invalid counts
// and diagnostics are recorded even when the caller discards the edges.
func (d *deriver) actionEdges(node *Node, items schema.Actions, kind EdgeKind, diags *[]Diagnostic) []Edge {
	var edges []Edge
	from := node.ID
	for i, item := range items {
		a, ok := item.(*schema.Action)
		if !ok {
			continue
		}
		if a.Type == schema.ActionEnd || (kind == EdgeSuccess && a.Type != schema.ActionGoto) {
			continue
		}
		if a.WorkflowID != "" {
			node.WorkflowTargets = append(node.WorkflowTargets, a.WorkflowID)
			continue
		}
		target := a.TargetFor(from)
		idx := strconv.Itoa(i)
		if !d.exists(target) {
			node.InvalidLinks++
			*diags = append(*diags, Diagnostic{
				StepID:    from,
				Code:      DiagInvalidTarget,
				Message:   fmt.Sprintf("%s action %q targets unknown step %q", kind, a.Name, target),
				Reference: target,
			})
			edges = append(edges, Edge{
				ID: "invalid:" + string(kind) + ":" + from + ":" + idx, Source: from, Target: from,
				Kind: kind, Label: "invalid: " + target, Invalid: true,
			})
			continue
		}
		edges = append(edges, Edge{
			ID: string(kind) + ":" + from + "->" + target + ":" + idx, Source: from, Target: target,
			Kind: kind, Label: a.Name,
		})
	}
	return edges
}

// dataEdges emits one edge per parameter whose value is a $steps reference.
func (d *deriver) dataEdges(node *Node, step *schema.Step, diags *[]Diagnostic) []Edge {
	var edges []Edge
	for i, p := range step.Parameters {
		text, ok := p.Value.(string)
		if !ok {
			continue
		}
		ref := expressions.Classify(text)
		if ref == nil || ref.Kind != expressions.KindSteps {
			continue
		}
		if !d.exists(ref.StepID) {
			node.InvalidLinks++
			*diags = append(*diags, Diagnostic{
				StepID:    step.StepID,
				Code:      DiagDanglingData,
				Message:   fmt.Sprintf("parameter %q references unknown step %q", p.Name, ref.StepID),
				Reference: ref.Raw,
			})
			continue
		}
		edges = append(edges, Edge{
			ID:     "data:" + ref.StepID + "->" + step.StepID + ":" + strconv.Itoa(i),
			Source: ref.StepID,
			Target: step.StepID,
			Kind:   EdgeData,
			Label:  ref.Field,
		})
	}
	return edges
}

func stepLabel(step *schema.Step) string {
	if op := step.OperationRef(); op != "" {
		return step.StepID + "\n(" + op + ")"
	}
	return step.StepID
}
