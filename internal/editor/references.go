package editor

import (
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// AutoActionName is the generated name of a goto action to target.
func AutoActionName(target string) string {
	return "goto_" + target
}

func autoRetryName(target string) string {
	return "retry_" + target
}

// targets reports whether a is a concrete in-workflow goto/retry naming id
// explicitly.
func targets(a *schema.Action, id string) bool {
	return a.Navigates() && a.StepID == id
}

// retarget points every action naming from at to. Generated names follow
// the new target; user-chosen names are kept. It returns how many actions
// changed.
func retarget(items schema.Actions, from, to string) int {
	n := 0
	for _, a := range items.Concrete() {
		if !targets(a, from) {
			continue
		}
		a.StepID = to
		switch a.Name {
		case AutoActionName(from):
			a.Name = AutoActionName(to)
		case autoRetryName(from):
			a.Name = autoRetryName(to)
		}
		n++
	}
	return n
}

// strip removes the concrete actions matching drop and reports how many
// were removed. A list emptied by the removal stays non-nil.
func strip(items schema.Actions, drop func(*schema.Action) bool) (schema.Actions, int) {
	if items == nil {
		return nil, 0
	}
	out := make(schema.Actions, 0, len(items))
	for _, item := range items {
		if a, ok := item.(*schema.Action); ok && drop(a) {
			continue
		}
		out = append(out, item)
	}
	return out, len(items) - len(out)
}

// rewriteCriteria rewrites $steps references inside criteria.
func rewriteCriteria(cs []schema.Criterion, from, to string) {
	for i := range cs {
		cs[i].Condition = expressions.RewriteStepRefs(cs[i].Condition, from, to)
		cs[i].Context = expressions.RewriteStepRefs(cs[i].Context, from, to)
	}
}

func rewriteActions(items schema.Actions, from, to string) {
	retarget(items, from, to)
	for _, a := range items.Concrete() {
		rewriteCriteria(a.Criteria, from, to)
	}
}

func rewriteParameters(ps []schema.Parameter, from, to string) {
	for i := range ps {
		ps[i].Value = expressions.RewriteValue(ps[i].Value, from, to)
	}
}

func rewriteOutputs(m map[string]string, from, to string) {
	for k, v := range m {
		m[k] = expressions.RewriteStepRefs(v, from, to)
	}
}

// renameInWorkflow rewrites every structural and textual reference to from.
// Component actions are shared across workflows and left untouched, as are
// reference items in any list.
func renameInWorkflow(wf *schema.Workflow, from, to string) {
	for i := range wf.Steps {
		s := &wf.Steps[i]
		if s.StepID == from {
			s.StepID = to
		}
		rewriteActions(s.OnSuccess, from, to)
		rewriteActions(s.OnFailure, from, to)
		rewriteParameters(s.Parameters, from, to)
		rewriteCriteria(s.SuccessCriteria, from, to)
		rewriteOutputs(s.Outputs, from, to)
		if s.RequestBody != nil {
			s.RequestBody.Payload = expressions.RewriteValue(s.RequestBody.Payload, from, to)
			for j := range s.RequestBody.Replacements {
				r := &s.RequestBody.Replacements[j]
				r.Value = expressions.RewriteValue(r.Value, from, to)
			}
		}
	}
	rewriteActions(wf.SuccessActions, from, to)
	rewriteActions(wf.FailureActions, from, to)
	rewriteParameters(wf.Parameters, from, to)
	rewriteOutputs(wf.Outputs, from, to)
}
