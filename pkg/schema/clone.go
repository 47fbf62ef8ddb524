package schema

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the document, keeping nil and empty slices
// distinct. Editor operations mutate the clone and never the input.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Arazzo:             d.Arazzo,
		SourceDescriptions: slices.Clone(d.SourceDescriptions),
	}
	if d.Info != nil {
		info := *d.Info
		out.Info = &info
	}
	if d.Workflows != nil {
		out.Workflows = make([]Workflow, len(d.Workflows))
		for i := range d.Workflows {
			out.Workflows[i] = d.Workflows[i].Clone()
		}
	}
	if d.Components != nil {
		c := &Components{
			Inputs: cloneAnyMap(d.Components.Inputs),
		}
		if d.Components.Parameters != nil {
			c.Parameters = make(map[string]Parameter, len(d.Components.Parameters))
			for k, p := range d.Components.Parameters {
				c.Parameters[k] = p.Clone()
			}
		}
		c.SuccessActions = cloneActionMap(d.Components.SuccessActions)
		c.FailureActions = cloneActionMap(d.Components.FailureActions)
		out.Components = c
	}
	return out
}

// Clone returns a deep copy of the workflow.
func (w Workflow) Clone() Workflow {
	out := w
	out.Inputs = CloneValue(w.Inputs)
	out.DependsOn = slices.Clone(w.DependsOn)
	out.Parameters = cloneParameters(w.Parameters)
	if w.Steps != nil {
		out.Steps = make([]Step, len(w.Steps))
		for i := range w.Steps {
			out.Steps[i] = w.Steps[i].Clone()
		}
	}
	out.SuccessActions = w.SuccessActions.Clone()
	out.FailureActions = w.FailureActions.Clone()
	out.Outputs = maps.Clone(w.Outputs)
	return out
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	out.Parameters = cloneParameters(s.Parameters)
	if s.RequestBody != nil {
		rb := RequestBody{
			ContentType: s.RequestBody.ContentType,
			Payload:     CloneValue(s.RequestBody.Payload),
		}
		if s.RequestBody.Replacements != nil {
			rb.Replacements = make([]PayloadReplacement, len(s.RequestBody.Replacements))
			for i, r := range s.RequestBody.Replacements {
				rb.Replacements[i] = PayloadReplacement{Target: r.Target, Value: CloneValue(r.Value)}
			}
		}
		out.RequestBody = &rb
	}
	out.SuccessCriteria = slices.Clone(s.SuccessCriteria)
	out.OnSuccess = s.OnSuccess.Clone()
	out.OnFailure = s.OnFailure.Clone()
	out.Outputs = maps.Clone(s.Outputs)
	return out
}

// Clone returns a deep copy of the parameter.
func (p Parameter) Clone() Parameter {
	p.Value = CloneValue(p.Value)
	return p
}

// Clone returns a deep copy of the action.
func (a *Action) Clone() *Action {
	out := *a
	out.Criteria = slices.Clone(a.Criteria)
	if a.RetryAfter != nil {
		v := *a.RetryAfter
		out.RetryAfter = &v
	}
	if a.RetryLimit != nil {
		v := *a.RetryLimit
		out.RetryLimit = &v
	}
	return &out
}

// Clone returns a deep copy of the list, preserving nil vs empty.
func (as Actions) Clone() Actions {
	if as == nil {
		return nil
	}
	out := make(Actions, len(as))
	for i, item := range as {
		switch v := item.(type) {
		case *Action:
			out[i] = v.Clone()
		case *ActionReference:
			out[i] = &ActionReference{Reference: v.Reference, Value: CloneValue(v.Value)}
		default:
			out[i] = item
		}
	}
	return out
}

// CloneValue deep copies decoded YAML/JSON values.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneAnyMap(val)
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

func cloneParameters(ps []Parameter) []Parameter {
	if ps == nil {
		return nil
	}
	out := make([]Parameter, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func cloneActionMap(m map[string]Action) map[string]Action {
	if m == nil {
		return nil
	}
	out := make(map[string]Action, len(m))
	for k, a := range m {
		out[k] = *a.Clone()
	}
	return out
}
