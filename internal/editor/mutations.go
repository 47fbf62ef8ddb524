package editor

import (
	"slices"

	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// Mutation kinds.
const (
	KindAddStep           = "addStep"
	KindDeleteStep        = "deleteStep"
	KindRenameStep        = "renameStep"
	KindConnect           = "connect"
	KindDisconnect        = "disconnect"
	KindInsertStepOnEdge  = "insertStepOnEdge"
	KindReorder           = "reorder"
	KindUpdateStep        = "updateStep"
	KindSelect            = "select"
	KindMoveNode          = "moveNode"
	KindSetActiveWorkflow = "setActiveWorkflow"
)

// AddStep appends a step to the active workflow. An empty StepID is replaced
// by the next generated "step_N" id.
type AddStep struct {
	Step     schema.Step   `json:"step"`
	Position *layout.Point `json:"position,omitempty"`
}

func (AddStep) Kind() string { return KindAddStep }

func (m AddStep) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	step, err := newStep(s, wf, m.Step)
	if err != nil {
		return err
	}
	wf.Steps = append(wf.Steps, step)
	if m.Position != nil {
		s.setPosition(step.StepID, *m.Position)
	}
	return nil
}

// DeleteStep removes a step and every concrete action targeting it. Data
// expressions naming the step are left in place and surface as dangling
// references in the derived graph.
type DeleteStep struct {
	StepID string `json:"stepId"`
}

func (DeleteStep) Kind() string { return KindDeleteStep }

func (m DeleteStep) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	idx := wf.StepIndex(m.StepID)
	if idx < 0 {
		return stepNotFound(m.StepID)
	}
	wf.Steps = slices.Delete(wf.Steps, idx, idx+1)

	drop := func(a *schema.Action) bool { return targets(a, m.StepID) }
	for i := range wf.Steps {
		st := &wf.Steps[i]
		st.OnSuccess, _ = strip(st.OnSuccess, drop)
		st.OnFailure, _ = strip(st.OnFailure, drop)
	}
	wf.SuccessActions, _ = strip(wf.SuccessActions, drop)
	wf.FailureActions, _ = strip(wf.FailureActions, drop)

	if s.Selected == m.StepID {
		s.Selected = ""
	}
	delete(s.Positions, m.StepID)
	return nil
}

// RenameStep changes a step id and rewrites every reference to it in the
// active workflow.
type RenameStep struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (RenameStep) Kind() string { return KindRenameStep }

func (m RenameStep) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	return rename(s, wf, m.From, m.To)
}

func rename(s *State, wf *schema.Workflow, from, to string) error {
	if !wf.HasStep(from) {
		return stepNotFound(from)
	}
	if from == to {
		return nil
	}
	if err := schema.CheckStepID(to); err != nil {
		return err
	}
	if wf.HasStep(to) {
		return conflict(to)
	}
	renameInWorkflow(wf, from, to)
	if s.Selected == from {
		s.Selected = to
	}
	if p, ok := s.Positions[from]; ok {
		delete(s.Positions, from)
		s.Positions[to] = p
	}
	return nil
}

// Connect appends a goto success action from Source to Target. Repeated
// calls add repeated actions.
type Connect struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (Connect) Kind() string { return KindConnect }

func (m Connect) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	src := wf.Step(m.Source)
	if src == nil {
		return stepNotFound(m.Source)
	}
	if !wf.HasStep(m.Target) {
		return stepNotFound(m.Target)
	}
	src.OnSuccess = append(src.OnSuccess, gotoAction(m.Target))
	return nil
}

// Disconnect removes every concrete goto success action from Source to
// Target. It is a no-op when there is none.
type Disconnect struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (Disconnect) Kind() string { return KindDisconnect }

func (m Disconnect) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	src := wf.Step(m.Source)
	if src == nil {
		return stepNotFound(m.Source)
	}
	src.OnSuccess, _ = strip(src.OnSuccess, func(a *schema.Action) bool {
		return a.Type == schema.ActionGoto && targets(a, m.Target)
	})
	return nil
}

// InsertStepOnEdge splices Step into the edge Source -> Target and selects
// it. Actions of Source naming Target are retargeted to the new step, which
// gets its own goto to Target. When Source only reaches Target by falling
// through to the next step, the new step is placed between them instead and
// only gets the goto if its own success actions would stop the fallthrough.
type InsertStepOnEdge struct {
	Step   schema.Step `json:"step"`
	Source string      `json:"source"`
	Target string      `json:"target"`
}

func (InsertStepOnEdge) Kind() string { return KindInsertStepOnEdge }

func (m InsertStepOnEdge) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	srcIdx := wf.StepIndex(m.Source)
	if srcIdx < 0 {
		return stepNotFound(m.Source)
	}
	if !wf.HasStep(m.Target) {
		return stepNotFound(m.Target)
	}

	step, err := newStep(s, wf, m.Step)
	if err != nil {
		return err
	}

	src := &wf.Steps[srcIdx]
	moved := retarget(src.OnSuccess, m.Target, step.StepID) + retarget(src.OnFailure, m.Target, step.StepID)
	switch {
	case moved > 0:
		step.OnSuccess = append(step.OnSuccess, gotoAction(m.Target))
		wf.Steps = slices.Insert(wf.Steps, insertionIndex(wf, srcIdx), step)
	case fallsThrough(wf, srcIdx, m.Target):
		if stopsFallthrough(&step) {
			step.OnSuccess = append(step.OnSuccess, gotoAction(m.Target))
		}
		wf.Steps = slices.Insert(wf.Steps, srcIdx+1, step)
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "no edge from %q to %q", m.Source, m.Target).
			WithStep(m.Source)
	}
	s.Selected = step.StepID
	return nil
}

// fallsThrough reports whether the step at i reaches target only through the
// implicit move to the next step.
func fallsThrough(wf *schema.Workflow, i int, target string) bool {
	if i+1 >= len(wf.Steps) || wf.Steps[i+1].StepID != target {
		return false
	}
	return !stopsFallthrough(&wf.Steps[i])
}

// insertionIndex picks where a spliced step goes so that no existing step
// starts falling through into it: right after the first step, from src on,
// whose success list already stops fallthrough, or at the front.
func insertionIndex(wf *schema.Workflow, src int) int {
	for i := src; i < len(wf.Steps); i++ {
		if stopsFallthrough(&wf.Steps[i]) {
			return i + 1
		}
	}
	return 0
}

func stopsFallthrough(st *schema.Step) bool {
	for _, a := range st.OnSuccess.Concrete() {
		if a.Type == schema.ActionGoto || a.Type == schema.ActionEnd {
			return true
		}
	}
	return false
}

// Reorder moves the step at From to index To. No reference changes.
type Reorder struct {
	WorkflowID string `json:"workflowId,omitempty"`
	From       int    `json:"from"`
	To         int    `json:"to"`
}

func (Reorder) Kind() string { return KindReorder }

func (m Reorder) apply(s *State) error {
	id := m.WorkflowID
	if id == "" {
		id = s.WorkflowID
	}
	wf, err := s.Document.FindWorkflow(id)
	if err != nil {
		return err
	}
	n := len(wf.Steps)
	if m.From < 0 || m.From >= n || m.To < 0 || m.To >= n {
		return schema.NewErrorf(schema.ErrCodeValidation, "reorder %d -> %d out of range [0, %d)", m.From, m.To, n)
	}
	step := wf.Steps[m.From]
	wf.Steps = slices.Delete(wf.Steps, m.From, m.From+1)
	wf.Steps = slices.Insert(wf.Steps, m.To, step)
	return nil
}

// StepPatch lists the fields UpdateStep may change. Nil fields are left
// alone.
type StepPatch struct {
	StepID          *string             `json:"stepId,omitempty"`
	Description     *string             `json:"description,omitempty"`
	OperationID     *string             `json:"operationId,omitempty"`
	OperationPath   *string             `json:"operationPath,omitempty"`
	WorkflowID      *string             `json:"workflowId,omitempty"`
	Parameters      []schema.Parameter  `json:"parameters,omitempty"`
	RequestBody     *schema.RequestBody `json:"requestBody,omitempty"`
	SuccessCriteria []schema.Criterion  `json:"successCriteria,omitempty"`
	OnSuccess       schema.Actions      `json:"onSuccess,omitempty"`
	OnFailure       schema.Actions      `json:"onFailure,omitempty"`
	Outputs         map[string]string   `json:"outputs,omitempty"`
}

// UpdateStep applies a patch and, when the patch changes the id, the full
// rename rewrite, as one transition.
type UpdateStep struct {
	StepID string    `json:"stepId"`
	Patch  StepPatch `json:"patch"`
}

func (UpdateStep) Kind() string { return KindUpdateStep }

func (m UpdateStep) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	st := wf.Step(m.StepID)
	if st == nil {
		return stepNotFound(m.StepID)
	}

	p := m.Patch
	if p.Description != nil {
		st.Description = *p.Description
	}
	// An operation reference is exclusive; setting one clears the others.
	if p.OperationID != nil || p.OperationPath != nil || p.WorkflowID != nil {
		st.OperationID, st.OperationPath, st.WorkflowID = deref(p.OperationID), deref(p.OperationPath), deref(p.WorkflowID)
	}
	if p.Parameters != nil {
		st.Parameters = schema.Step{Parameters: p.Parameters}.Clone().Parameters
	}
	if p.RequestBody != nil {
		st.RequestBody = schema.Step{RequestBody: p.RequestBody}.Clone().RequestBody
	}
	if p.SuccessCriteria != nil {
		st.SuccessCriteria = slices.Clone(p.SuccessCriteria)
	}
	if p.OnSuccess != nil {
		st.OnSuccess = p.OnSuccess.Clone()
	}
	if p.OnFailure != nil {
		st.OnFailure = p.OnFailure.Clone()
	}
	if p.Outputs != nil {
		st.Outputs = schema.Step{Outputs: p.Outputs}.Clone().Outputs
	}

	if p.StepID != nil && *p.StepID != m.StepID {
		return rename(s, wf, m.StepID, *p.StepID)
	}
	return nil
}

// Select sets the selected node. An empty id clears the selection.
type Select struct {
	NodeID string `json:"nodeId"`
}

func (Select) Kind() string { return KindSelect }

func (m Select) apply(s *State) error {
	if m.NodeID != "" {
		wf, err := s.workflow()
		if err != nil {
			return err
		}
		if !wf.HasStep(m.NodeID) && !isVirtualNode(m.NodeID) {
			return stepNotFound(m.NodeID)
		}
	}
	s.Selected = m.NodeID
	return nil
}

// MoveNode pins a node to a position chosen by the user.
type MoveNode struct {
	NodeID   string       `json:"nodeId"`
	Position layout.Point `json:"position"`
}

func (MoveNode) Kind() string { return KindMoveNode }

func (m MoveNode) apply(s *State) error {
	wf, err := s.workflow()
	if err != nil {
		return err
	}
	if !wf.HasStep(m.NodeID) && !isVirtualNode(m.NodeID) {
		return stepNotFound(m.NodeID)
	}
	s.setPosition(m.NodeID, m.Position)
	return nil
}

// SetActiveWorkflow switches the workflow being edited. Selection and
// positions belong to the previous workflow and are cleared.
type SetActiveWorkflow struct {
	WorkflowID string `json:"workflowId"`
}

func (SetActiveWorkflow) Kind() string { return KindSetActiveWorkflow }

func (m SetActiveWorkflow) apply(s *State) error {
	if _, err := s.Document.FindWorkflow(m.WorkflowID); err != nil {
		return err
	}
	if m.WorkflowID == s.WorkflowID {
		return nil
	}
	s.WorkflowID = m.WorkflowID
	s.Selected = ""
	s.Positions = nil
	return nil
}

func gotoAction(target string) *schema.Action {
	return &schema.Action{Name: AutoActionName(target), Type: schema.ActionGoto, StepID: target}
}

// newStep copies step for insertion into wf, generating an id when it has
// none and rejecting ids that are malformed or taken.
func newStep(s *State, wf *schema.Workflow, step schema.Step) (schema.Step, error) {
	out := step.Clone()
	if out.StepID == "" {
		out.StepID = s.nextStepID(wf)
		return out, nil
	}
	if err := schema.CheckStepID(out.StepID); err != nil {
		return schema.Step{}, err
	}
	if wf.HasStep(out.StepID) {
		return schema.Step{}, conflict(out.StepID)
	}
	return out, nil
}

func isVirtualNode(id string) bool {
	return id == graph.InputNodeID || id == graph.OutputNodeID
}

func stepNotFound(id string) error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "step %q not found", id).WithStep(id)
}

func conflict(id string) error {
	return schema.NewErrorf(schema.ErrCodeConflict, "step %q already exists", id).WithStep(id)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
