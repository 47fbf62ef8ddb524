package schema

// Document is the in-memory workflow specification. It is produced by Decode
// or NewDocument and is only ever changed through the editor package.
type Document struct {
	Arazzo             string              `json:"arazzo" yaml:"arazzo"`
	Info               *Info               `json:"info,omitempty" yaml:"info,omitempty"`
	SourceDescriptions []SourceDescription `json:"sourceDescriptions" yaml:"sourceDescriptions"`
	Workflows          []Workflow          `json:"workflows" yaml:"workflows"`
	Components         *Components         `json:"components,omitempty" yaml:"components,omitempty"`
}

// Info carries document metadata.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

// SourceDescription names an API description that steps reference as
// "<name>.<operationId>" or "$sourceDescriptions.<name>.<operationId>".
type SourceDescription struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"` // openapi | arazzo
}

// Components holds reusable definitions referenced by name.
type Components struct {
	Inputs         map[string]any       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Parameters     map[string]Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	SuccessActions map[string]Action    `json:"successActions,omitempty" yaml:"successActions,omitempty"`
	FailureActions map[string]Action    `json:"failureActions,omitempty" yaml:"failureActions,omitempty"`
}

// Workflow is one ordered list of steps plus its inputs and outputs.
type Workflow struct {
	WorkflowID     string            `json:"workflowId" yaml:"workflowId"`
	Summary        string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs         any               `json:"inputs,omitempty" yaml:"inputs,omitempty"` // JSON Schema
	DependsOn      []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Parameters     []Parameter       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Steps          []Step            `json:"steps" yaml:"steps"`
	SuccessActions Actions           `json:"successActions,omitempty" yaml:"successActions,omitempty"`
	FailureActions Actions           `json:"failureActions,omitempty" yaml:"failureActions,omitempty"`
	Outputs        map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Step is a single operation invocation.
type Step struct {
	StepID          string            `json:"stepId" yaml:"stepId"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID     string            `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	OperationPath   string            `json:"operationPath,omitempty" yaml:"operationPath,omitempty"`
	WorkflowID      string            `json:"workflowId,omitempty" yaml:"workflowId,omitempty"` // sub-workflow call
	Parameters      []Parameter       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody     *RequestBody      `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	SuccessCriteria []Criterion       `json:"successCriteria,omitempty" yaml:"successCriteria,omitempty"`
	OnSuccess       Actions           `json:"onSuccess,omitempty" yaml:"onSuccess,omitempty"`
	OnFailure       Actions           `json:"onFailure,omitempty" yaml:"onFailure,omitempty"`
	Outputs         map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// OperationRef returns whichever operation reference the step uses.
func (s *Step) OperationRef() string {
	switch {
	case s.OperationID != "":
		return s.OperationID
	case s.OperationPath != "":
		return s.OperationPath
	default:
		return s.WorkflowID
	}
}

// Parameter maps a value (literal or expression) onto an operation input.
// A parameter with Reference set points at $components.parameters.<name>.
type Parameter struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	In        string `json:"in,omitempty" yaml:"in,omitempty"` // path | query | header | cookie
	Value     any    `json:"value,omitempty" yaml:"value,omitempty"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// RequestBody describes the payload sent by a step.
type RequestBody struct {
	ContentType  string               `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Payload      any                  `json:"payload,omitempty" yaml:"payload,omitempty"`
	Replacements []PayloadReplacement `json:"replacements,omitempty" yaml:"replacements,omitempty"`
}

// PayloadReplacement overrides one location of the payload.
type PayloadReplacement struct {
	Target string `json:"target" yaml:"target"`
	Value  any    `json:"value" yaml:"value"`
}

// Criterion is a success or action condition.
type Criterion struct {
	Context   string        `json:"context,omitempty" yaml:"context,omitempty"`
	Condition string        `json:"condition" yaml:"condition"`
	Type      CriterionType `json:"type,omitempty" yaml:"type,omitempty"`
}

// NewDocument returns the editor's initial empty document: one workflow and
// no steps.
func NewDocument() *Document {
	return &Document{
		Arazzo: "1.0.1",
		Info: &Info{
			Title:   "Untitled workflow",
			Version: "1.0.0",
		},
		SourceDescriptions: []SourceDescription{},
		Workflows: []Workflow{
			{WorkflowID: "workflow_1", Steps: []Step{}},
		},
	}
}
