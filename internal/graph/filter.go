package graph

import (
	"context"

	"github.com/rendis/arazzo-graph/internal/expressions"
)

// Filter returns a copy of g keeping the nodes matching nodeExpr and the
// edges matching edgeExpr. Edges touching a removed node are dropped too.
// An empty expression keeps everything.
//
// Node predicates see: id, kind, label, operation, start, end, invalidLinks.
// Edge predicates see: id, source, target, kind, label, invalid.
func Filter(ctx context.Context, g *Graph, nodeExpr, edgeExpr string, engine *expressions.ExprEngine) (*Graph, error) {
	if engine == nil {
		engine = expressions.NewExprEngine()
	}

	out := &Graph{WorkflowID: g.WorkflowID, Diagnostics: g.Diagnostics}
	kept := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if nodeExpr != "" {
			ok, err := engine.Match(ctx, nodeExpr, nodeEnv(n))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		cp := *n
		out.Nodes = append(out.Nodes, &cp)
		kept[n.ID] = true
	}

	for _, e := range g.Edges {
		if !kept[e.Source] || !kept[e.Target] {
			continue
		}
		if edgeExpr != "" {
			ok, err := engine.Match(ctx, edgeExpr, edgeEnv(e))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out.Edges = append(out.Edges, e)
	}

	out.Topo = Topo{
		Ordered: keep(g.Topo.Ordered, kept),
		Starts:  keep(g.Topo.Starts, kept),
		Ends:    keep(g.Topo.Ends, kept),
	}
	return out, nil
}

func nodeEnv(n *Node) map[string]any {
	op := ""
	if n.Step != nil {
		op = n.Step.OperationRef()
	}
	return map[string]any{
		"id":           n.ID,
		"kind":         string(n.Kind),
		"label":        n.Label,
		"operation":    op,
		"start":        n.Start,
		"end":          n.End,
		"invalidLinks": n.InvalidLinks,
	}
}

func edgeEnv(e Edge) map[string]any {
	return map[string]any{
		"id":      e.ID,
		"source":  e.Source,
		"target":  e.Target,
		"kind":    string(e.Kind),
		"label":   e.Label,
		"invalid": e.Invalid,
	}
}

func keep(ids []string, kept map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if kept[id] {
			out = append(out, id)
		}
	}
	return out
}
