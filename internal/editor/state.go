package editor

import (
	"fmt"
	"maps"

	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// State is one immutable snapshot of an editing session. Apply never
// modifies the State it receives.
type State struct {
	Document   *schema.Document `json:"document"`
	WorkflowID string           `json:"workflowId"`
	Selected   string           `json:"selected,omitempty"`
	Positions  layout.Positions `json:"positions,omitempty"`
	// Seq numbers generated step ids ("step_N"). It belongs to the session,
	// so replaying the same mutations yields the same ids.
	Seq int `json:"seq"`
}

// NewState opens doc on its first workflow. A nil doc starts from
// schema.NewDocument().
func NewState(doc *schema.Document) (State, error) {
	if doc == nil {
		doc = schema.NewDocument()
	}
	if len(doc.Workflows) == 0 {
		return State{}, schema.NewError(schema.ErrCodeStructural, "document has no workflows")
	}
	return State{Document: doc, WorkflowID: doc.Workflows[0].WorkflowID}, nil
}

// Mutation is one editor operation.
type Mutation interface {
	// Kind names the operation for logs, metrics and wire decoding.
	Kind() string
	apply(s *State) error
}

// Apply runs m against a copy of s. On error the original state is returned
// unchanged together with the error, so a failed mutation never leaves a
// partial edit behind.
func Apply(s State, m Mutation) (State, error) {
	if s.Document == nil {
		return s, schema.NewError(schema.ErrCodeValidation, "state has no document")
	}
	next := s.clone()
	if err := m.apply(&next); err != nil {
		return s, fmt.Errorf("editor: %s: %w", m.Kind(), err)
	}
	return next, nil
}

func (s State) clone() State {
	out := s
	out.Document = s.Document.Clone()
	out.Positions = maps.Clone(s.Positions)
	return out
}

// workflow returns the active workflow of the (already cloned) state.
func (s *State) workflow() (*schema.Workflow, error) {
	return s.Document.FindWorkflow(s.WorkflowID)
}

// nextStepID returns the first unused "step_N" id and advances Seq.
func (s *State) nextStepID(wf *schema.Workflow) string {
	for {
		s.Seq++
		id := fmt.Sprintf("step_%d", s.Seq)
		if !wf.HasStep(id) {
			return id
		}
	}
}

func (s *State) setPosition(id string, p layout.Point) {
	if s.Positions == nil {
		s.Positions = make(layout.Positions)
	}
	s.Positions[id] = p
}
