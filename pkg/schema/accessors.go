package schema

// ActionList names the list an action lives in.
type ActionList string

const (
	ListOnSuccess      ActionList = "onSuccess"
	ListOnFailure      ActionList = "onFailure"
	ListSuccessActions ActionList = "successActions" // workflow level
	ListFailureActions ActionList = "failureActions" // workflow level
)

// ActionRef locates a concrete action inside a workflow. StepID is empty for
// workflow-level actions.
type ActionRef struct {
	StepID string
	List   ActionList
	Index  int
	Action *Action
}

// FindWorkflow returns the workflow with the given id.
func (d *Document) FindWorkflow(id string) (*Workflow, error) {
	for i := range d.Workflows {
		if d.Workflows[i].WorkflowID == id {
			return &d.Workflows[i], nil
		}
	}
	return nil, NewErrorf(ErrCodeNotFound, "workflow %q not found", id).
		WithDetails(map[string]any{"workflow_id": id})
}

// FindStep returns the step stepID of workflow workflowID.
func (d *Document) FindStep(workflowID, stepID string) (*Step, error) {
	wf, err := d.FindWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	step := wf.Step(stepID)
	if step == nil {
		return nil, NewErrorf(ErrCodeNotFound, "step %q not found in workflow %q", stepID, workflowID).
			WithStep(stepID).
			WithDetails(map[string]any{"workflow_id": workflowID})
	}
	return step, nil
}

// Step returns the step with the given id or nil.
func (w *Workflow) Step(stepID string) *Step {
	if i := w.StepIndex(stepID); i >= 0 {
		return &w.Steps[i]
	}
	return nil
}

// StepIndex returns the position of stepID in the step list, or -1.
func (w *Workflow) StepIndex(stepID string) int {
	for i := range w.Steps {
		if w.Steps[i].StepID == stepID {
			return i
		}
	}
	return -1
}

// HasStep reports whether the workflow contains stepID.
func (w *Workflow) HasStep(stepID string) bool {
	return w.StepIndex(stepID) >= 0
}

// ListActionsReferencing returns every concrete action of the workflow whose
// navigation target is stepID, in document order. References to reusable
// components are never returned.
func (w *Workflow) ListActionsReferencing(stepID string) []ActionRef {
	var refs []ActionRef
	collect := func(owner string, list ActionList, items Actions) {
		for i, item := range items {
			a, ok := item.(*Action)
			if !ok || !a.Navigates() {
				continue
			}
			if a.TargetFor(owner) == stepID {
				refs = append(refs, ActionRef{StepID: owner, List: list, Index: i, Action: a})
			}
		}
	}
	for i := range w.Steps {
		s := &w.Steps[i]
		collect(s.StepID, ListOnSuccess, s.OnSuccess)
		collect(s.StepID, ListOnFailure, s.OnFailure)
	}
	collect("", ListSuccessActions, w.SuccessActions)
	collect("", ListFailureActions, w.FailureActions)
	return refs
}

// ComponentAction resolves a reusable action reference, or returns nil.
func (d *Document) ComponentAction(ref *ActionReference) *Action {
	if d.Components == nil || ref == nil {
		return nil
	}
	category, name, ok := ref.ComponentName()
	if !ok {
		return nil
	}
	var pool map[string]Action
	switch category {
	case "successActions":
		pool = d.Components.SuccessActions
	case "failureActions":
		pool = d.Components.FailureActions
	}
	a, found := pool[name]
	if !found {
		return nil
	}
	return &a
}

// SourceDescription returns the named source description or nil.
func (d *Document) SourceDescription(name string) *SourceDescription {
	for i := range d.SourceDescriptions {
		if d.SourceDescriptions[i].Name == name {
			return &d.SourceDescriptions[i]
		}
	}
	return nil
}
