package validation

import (
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// Validator runs the document validation pipeline:
// 1. Structural (JSON Schema, then the structural predicate)
// 2. Semantic (targets, data references, sources, criteria, input schemas)
// 3. Reachability (derived graph)
type Validator struct {
	jsonSchema *JSONSchemaValidator
	evaluator  *expressions.Evaluator
}

// NewValidator creates a Validator.
func NewValidator() (*Validator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	ev, err := expressions.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return &Validator{jsonSchema: jsv, evaluator: ev}, nil
}

// Validate runs every stage and returns the aggregated result. Structural
// errors short-circuit: the semantic and reachability stages are skipped.
func (v *Validator) Validate(doc *schema.Document) *schema.ValidationResult {
	if doc == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.IssueSchemaViolation, "document is nil")
		return r
	}

	// Stage 1: Structural.
	result := validateStructural(v.jsonSchema, doc)
	if !result.Valid() {
		return result
	}
	result.Merge(schema.CheckStructure(doc))
	if !result.Valid() {
		return result
	}

	// Stage 2: Semantic.
	result.Merge(validateSemantic(doc, v.evaluator, v.jsonSchema))

	// Stage 3: Reachability. Dangling targets already show up as errors, so
	// the graph is only walked for otherwise valid documents.
	if result.Valid() {
		result.Merge(validateReachability(doc))
	}

	return result
}

// ValidateDocument returns the pipeline result as a VALIDATION_ERROR, or nil.
func (v *Validator) ValidateDocument(doc *schema.Document) error {
	return v.Validate(doc).ToError(schema.ErrCodeValidation)
}

// ValidateInputs checks sample inputs against the inputs schema of wf.
func (v *Validator) ValidateInputs(input map[string]any, wf *schema.Workflow) error {
	if wf == nil {
		return schema.NewError(schema.ErrCodeValidation, "workflow is nil")
	}
	return v.jsonSchema.ValidateInputs(input, wf.Inputs)
}

// validateStructural turns the JSON Schema stage's error into issues.
func validateStructural(v *JSONSchemaValidator, doc *schema.Document) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	err := v.ValidateDocument(doc)
	if err == nil {
		return result
	}

	schemaErr, ok := err.(*schema.Error)
	if !ok {
		result.AddError("/", schema.IssueSchemaViolation, err.Error())
		return result
	}
	if violations, ok := schemaErr.Details["violations"].([]string); ok {
		for _, msg := range violations {
			result.AddError("/", schema.IssueSchemaViolation, msg)
		}
		return result
	}
	result.AddError("/", schema.IssueSchemaViolation, schemaErr.Message)
	return result
}
