package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Ids of the virtual input and output nodes of a derived graph. Steps may
// not use them.
const (
	InputNodeID  = "__input__"
	OutputNodeID = "__output__"
)

// stepIDRe matches the ids runtime expressions can address as $steps.<id>.
var stepIDRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// CheckStepID returns a VALIDATION_ERROR when id cannot name a new step.
func CheckStepID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return NewError(ErrCodeValidation, "step id must not be empty")
	case id == InputNodeID || id == OutputNodeID:
		return NewErrorf(ErrCodeValidation, "step id %q is reserved", id).WithStep(id)
	case !stepIDRe.MatchString(id):
		return NewErrorf(ErrCodeValidation, "step id %q may only contain letters, digits, '_' and '-'", id).WithStep(id)
	}
	return nil
}

// CheckWorkflowSteps returns a STRUCTURAL_ERROR when a step id of wf is
// empty, reserved or repeated.
func CheckWorkflowSteps(wf *Workflow) error {
	result := &ValidationResult{}
	checkStepIDs(wf, "steps", result)
	return result.ToError(ErrCodeStructural)
}

// IsStructurallyValid checks the invariants the graph deriver relies on and
// returns an *Error with code STRUCTURAL_ERROR listing every violation, or nil.
// It does not look inside expressions.
func IsStructurallyValid(doc *Document) error {
	if doc == nil {
		return NewError(ErrCodeStructural, "document is nil")
	}
	return CheckStructure(doc).ToError(ErrCodeStructural)
}

// CheckStructure is IsStructurallyValid returning the full result.
func CheckStructure(doc *Document) *ValidationResult {
	result := &ValidationResult{}

	if doc.Arazzo == "" {
		result.AddError("arazzo", IssueMissingVersion, "document version is missing")
	}
	if doc.Info == nil {
		result.AddError("info", IssueMissingInfo, "document info is missing")
	}
	if len(doc.Workflows) == 0 {
		result.AddError("workflows", IssueNoWorkflows, "document declares no workflows")
	}

	seenWorkflows := make(map[string]bool, len(doc.Workflows))
	for i := range doc.Workflows {
		wf := &doc.Workflows[i]
		path := fmt.Sprintf("workflows[%d]", i)
		if seenWorkflows[wf.WorkflowID] {
			result.AddError(path+".workflowId", IssueDuplicateWorkflow,
				fmt.Sprintf("duplicate workflowId %q", wf.WorkflowID))
		}
		seenWorkflows[wf.WorkflowID] = true

		checkStepIDs(wf, path+".steps", result)
		for j := range wf.Steps {
			step := &wf.Steps[j]
			stepPath := fmt.Sprintf("%s.steps[%d]", path, j)
			checkReferences(doc, stepPath+".onSuccess", step.OnSuccess, result)
			checkReferences(doc, stepPath+".onFailure", step.OnFailure, result)
		}
		checkReferences(doc, path+".successActions", wf.SuccessActions, result)
		checkReferences(doc, path+".failureActions", wf.FailureActions, result)
	}

	return result
}

func checkReferences(doc *Document, path string, items Actions, result *ValidationResult) {
	for i, item := range items {
		ref, ok := item.(*ActionReference)
		if !ok {
			continue
		}
		if doc.ComponentAction(ref) == nil {
			result.AddError(fmt.Sprintf("%s[%d].reference", path, i), IssueMissingComponent,
				fmt.Sprintf("reference %q names no reusable action", ref.Reference))
		}
	}
}

func checkStepIDs(wf *Workflow, path string, result *ValidationResult) {
	seen := make(map[string]bool, len(wf.Steps))
	for j := range wf.Steps {
		id := wf.Steps[j].StepID
		idPath := fmt.Sprintf("%s[%d].stepId", path, j)
		switch {
		case id == "":
			result.AddError(idPath, IssueEmptyStepID, "stepId is empty")
		case id == InputNodeID || id == OutputNodeID:
			result.AddError(idPath, IssueReservedStepID, fmt.Sprintf("stepId %q is reserved", id))
		case seen[id]:
			result.AddError(idPath, IssueDuplicateStep,
				fmt.Sprintf("duplicate stepId %q in workflow %q", id, wf.WorkflowID))
		}
		seen[id] = true
	}
}
