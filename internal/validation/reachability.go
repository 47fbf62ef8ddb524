package validation

import (
	"fmt"

	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// validateReachability derives each workflow's graph and warns about steps
// that no control edge reaches from a start step (BFS over sequential,
// success and failure edges). Invalid self edges and data edges are ignored.
func validateReachability(doc *schema.Document) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	for i := range doc.Workflows {
		wf := &doc.Workflows[i]
		g := graph.DeriveWorkflow(wf, graph.Options{})

		next := make(map[string][]string, len(g.Nodes))
		for _, e := range g.Edges {
			if e.Kind == graph.EdgeData || e.Invalid {
				continue
			}
			next[e.Source] = append(next[e.Source], e.Target)
		}

		reachable := make(map[string]bool, len(wf.Steps))
		queue := append([]string(nil), g.Topo.Starts...)
		for _, id := range queue {
			reachable[id] = true
		}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, succ := range next[node] {
				if !reachable[succ] {
					reachable[succ] = true
					queue = append(queue, succ)
				}
			}
		}

		for j, s := range wf.Steps {
			if !reachable[s.StepID] {
				result.AddWarning(fmt.Sprintf("workflows[%d].steps[%d]", i, j), schema.IssueUnreachableStep,
					fmt.Sprintf("step %q is unreachable from any start step", s.StepID))
			}
		}
	}

	return result
}
