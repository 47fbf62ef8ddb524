package validation

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// sourceRef matches the source description name in operation references such
// as "$sourceDescriptions.petstore.getPet" or
// "{$sourceDescriptions.petstore.url}#/paths/~1pets/get".
var sourceRef = regexp.MustCompile(`\$sourceDescriptions\.([A-Za-z0-9_\-]+)`)

// validateSemantic checks what JSON Schema cannot express: targets and data
// references naming existing steps, operation references naming declared
// source descriptions, criteria that compile, and input schemas that compile.
func validateSemantic(doc *schema.Document, ev *expressions.Evaluator, jsv *JSONSchemaValidator) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	workflows := make(map[string]bool, len(doc.Workflows))
	for _, wf := range doc.Workflows {
		workflows[wf.WorkflowID] = true
	}

	for i := range doc.Workflows {
		wf := &doc.Workflows[i]
		path := fmt.Sprintf("workflows[%d]", i)

		if err := jsv.CompileInputs(wf.Inputs); err != nil {
			result.AddError(path+".inputs", schema.IssueInvalidInputSchema, err.Error())
		}
		for j, dep := range wf.DependsOn {
			if !workflows[dep] && !sourceRef.MatchString(dep) {
				result.AddError(fmt.Sprintf("%s.dependsOn[%d]", path, j), schema.IssueDanglingTarget,
					fmt.Sprintf("depends on unknown workflow %q", dep))
			}
		}

		for j := range wf.Steps {
			step := &wf.Steps[j]
			stepPath := fmt.Sprintf("%s.steps[%d]", path, j)
			validateStepSemantic(doc, wf, step, stepPath, workflows, ev, result)
		}
		validateActions(wf, "", path+".successActions", wf.SuccessActions, workflows, ev, result)
		validateActions(wf, "", path+".failureActions", wf.FailureActions, workflows, ev, result)
		validateOutputs(wf, path+".outputs", wf.Outputs, result)
	}

	return result
}

func validateStepSemantic(doc *schema.Document, wf *schema.Workflow, step *schema.Step, path string, workflows map[string]bool, ev *expressions.Evaluator, result *schema.ValidationResult) {
	// Operation reference.
	switch {
	case step.OperationID != "":
		checkSource(doc, path+".operationId", step.OperationID, result)
	case step.OperationPath != "":
		checkSource(doc, path+".operationPath", step.OperationPath, result)
	case step.WorkflowID != "":
		if !sourceRef.MatchString(step.WorkflowID) && !workflows[step.WorkflowID] {
			result.AddError(path+".workflowId", schema.IssueDanglingTarget,
				fmt.Sprintf("calls unknown workflow %q", step.WorkflowID))
		}
		checkSource(doc, path+".workflowId", step.WorkflowID, result)
	}

	for k, c := range step.SuccessCriteria {
		checkCriterion(ev, fmt.Sprintf("%s.successCriteria[%d]", path, k), c, result)
	}
	validateActions(wf, step.StepID, path+".onSuccess", step.OnSuccess, workflows, ev, result)
	validateActions(wf, step.StepID, path+".onFailure", step.OnFailure, workflows, ev, result)

	for k, p := range step.Parameters {
		validateDataRefs(wf, fmt.Sprintf("%s.parameters[%d]", path, k), p.Value, result)
	}
	if step.RequestBody != nil {
		validateDataRefs(wf, path+".requestBody.payload", step.RequestBody.Payload, result)
	}
	validateOutputs(wf, path+".outputs", step.Outputs, result)
}

// validateActions flags concrete actions whose step or workflow target does
// not exist. Reference actions are checked by the structural stage.
func validateActions(wf *schema.Workflow, stepID, path string, items schema.Actions, workflows map[string]bool, ev *expressions.Evaluator, result *schema.ValidationResult) {
	for i, item := range items {
		a, ok := item.(*schema.Action)
		if !ok {
			continue
		}
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if a.Navigates() {
			if target := a.TargetFor(stepID); target != "" && !wf.HasStep(target) {
				result.AddError(itemPath+".stepId", schema.IssueDanglingTarget,
					fmt.Sprintf("action %q targets unknown step %q", a.Name, target))
			}
		}
		if a.WorkflowID != "" && !workflows[a.WorkflowID] && !sourceRef.MatchString(a.WorkflowID) {
			result.AddError(itemPath+".workflowId", schema.IssueDanglingTarget,
				fmt.Sprintf("action %q targets unknown workflow %q", a.Name, a.WorkflowID))
		}
		for k, c := range a.Criteria {
			checkCriterion(ev, fmt.Sprintf("%s.criteria[%d]", itemPath, k), c, result)
		}
	}
}

// validateDataRefs warns about $steps references to steps the workflow does
// not have. The graph shows them as dangling; they are not fatal.
func validateDataRefs(wf *schema.Workflow, path string, v any, result *schema.ValidationResult) {
	for _, ref := range expressions.StepRefs(v) {
		if !wf.HasStep(ref.StepID) {
			result.AddWarning(path, schema.IssueDanglingData,
				fmt.Sprintf("%s references unknown step %q", ref.Raw, ref.StepID))
		}
	}
}

func validateOutputs(wf *schema.Workflow, path string, outputs map[string]string, result *schema.ValidationResult) {
	for _, name := range slices.Sorted(maps.Keys(outputs)) {
		validateDataRefs(wf, path+"."+name, outputs[name], result)
	}
}

func checkSource(doc *schema.Document, path, ref string, result *schema.ValidationResult) {
	m := sourceRef.FindStringSubmatch(ref)
	if m == nil {
		return
	}
	if doc.SourceDescription(m[1]) == nil {
		result.AddError(path, schema.IssueUnknownSource,
			fmt.Sprintf("source description %q is not declared", m[1]))
	}
}

func checkCriterion(ev *expressions.Evaluator, path string, c schema.Criterion, result *schema.ValidationResult) {
	if err := ev.CheckCriterion(c); err != nil {
		result.AddError(path, schema.IssueInvalidCriterion, err.Error())
	}
}
