package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionType enumerates what a success or failure action does.
type ActionType string

const (
	ActionGoto  ActionType = "goto"
	ActionEnd   ActionType = "end"
	ActionRetry ActionType = "retry"
)

// ActionItem is either a concrete *Action or an *ActionReference to a reusable
// component. Graph and editor code must type-switch on it and treat references
// as opaque.
type ActionItem interface {
	actionItem()
}

// Action is a concrete navigation rule.
type Action struct {
	Name       string      `json:"name" yaml:"name"`
	Type       ActionType  `json:"type" yaml:"type"`
	WorkflowID string      `json:"workflowId,omitempty" yaml:"workflowId,omitempty"`
	StepID     string      `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	Criteria   []Criterion `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	RetryAfter *float64    `json:"retryAfter,omitempty" yaml:"retryAfter,omitempty"` // seconds
	RetryLimit *int        `json:"retryLimit,omitempty" yaml:"retryLimit,omitempty"`
}

// ActionReference points at $components.successActions.<name> or
// $components.failureActions.<name>.
type ActionReference struct {
	Reference string `json:"reference" yaml:"reference"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty"`
}

func (*Action) actionItem()          {}
func (*ActionReference) actionItem() {}

// IsReferenceAction reports whether item is a reusable-component reference.
func IsReferenceAction(item ActionItem) bool {
	_, ok := item.(*ActionReference)
	return ok
}

// Navigates reports whether the action moves flow to a step of the current
// workflow (a goto or retry without a workflow target).
func (a *Action) Navigates() bool {
	return (a.Type == ActionGoto || a.Type == ActionRetry) && a.WorkflowID == ""
}

// TargetFor returns the step the action leads to when fired from stepID.
// A retry without an explicit step retries the current step.
func (a *Action) TargetFor(stepID string) string {
	if a.Type == ActionRetry && a.StepID == "" {
		return stepID
	}
	return a.StepID
}

// ComponentName splits "$components.<category>.<name>" into its parts.
func (r *ActionReference) ComponentName() (category, name string, ok bool) {
	rest, found := strings.CutPrefix(r.Reference, "$components.")
	if !found {
		return "", "", false
	}
	category, name, ok = strings.Cut(rest, ".")
	if !ok || category == "" || name == "" {
		return "", "", false
	}
	return category, name, true
}

// Actions is an ordered list of action items that decodes both shapes.
type Actions []ActionItem

// Concrete returns the concrete actions, skipping references.
func (as Actions) Concrete() []*Action {
	out := make([]*Action, 0, len(as))
	for _, item := range as {
		if a, ok := item.(*Action); ok {
			out = append(out, a)
		}
	}
	return out
}

// UnmarshalJSON decodes each element as an ActionReference when it carries a
// "reference" key and as an Action otherwise.
func (as *Actions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Actions, 0, len(raws))
	for i, raw := range raws {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		item, err := decodeActionJSON(raw, probe)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, item)
	}
	*as = out
	return nil
}

func decodeActionJSON(raw json.RawMessage, probe map[string]json.RawMessage) (ActionItem, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, isRef := probe["reference"]; isRef {
		ref := &ActionReference{}
		return ref, dec.Decode(ref)
	}
	a := &Action{}
	return a, dec.Decode(a)
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (as *Actions) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: actions must be a sequence", value.Line)
	}
	out := make(Actions, 0, len(value.Content))
	for _, n := range value.Content {
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: action must be a mapping", n.Line)
		}
		if hasYAMLKey(n, "reference") {
			ref := &ActionReference{}
			if err := n.Decode(ref); err != nil {
				return err
			}
			out = append(out, ref)
			continue
		}
		a := &Action{}
		if err := n.Decode(a); err != nil {
			return err
		}
		out = append(out, a)
	}
	*as = out
	return nil
}

func hasYAMLKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// CriterionType is "simple", "regex", "jsonpath" or "xpath". The object form
// {type, version} decodes to its type.
type CriterionType string

const (
	CriterionSimple   CriterionType = "simple"
	CriterionRegex    CriterionType = "regex"
	CriterionJSONPath CriterionType = "jsonpath"
	CriterionXPath    CriterionType = "xpath"
)

type criterionTypeObject struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// UnmarshalJSON accepts a string or an expression type object.
func (c *CriterionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = CriterionType(s)
		return nil
	}
	var obj criterionTypeObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = CriterionType(obj.Type)
	return nil
}

// UnmarshalYAML accepts a scalar or an expression type mapping.
func (c *CriterionType) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*c = CriterionType(value.Value)
		return nil
	}
	var obj criterionTypeObject
	if err := value.Decode(&obj); err != nil {
		return err
	}
	*c = CriterionType(obj.Type)
	return nil
}

// OrDefault returns the type, defaulting to simple.
func (c CriterionType) OrDefault() CriterionType {
	if c == "" {
		return CriterionSimple
	}
	return c
}
