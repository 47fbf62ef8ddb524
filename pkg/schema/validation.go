package schema

import "fmt"

// ValidationSeverity indicates whether an issue is an error or warning.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// Issue codes used by the structural predicate and the validation pipeline.
const (
	IssueMissingVersion     = "missing_version"
	IssueMissingInfo        = "missing_info"
	IssueNoWorkflows        = "no_workflows"
	IssueDuplicateWorkflow  = "duplicate_workflow_id"
	IssueDuplicateStep      = "duplicate_step_id"
	IssueMissingComponent   = "missing_component"
	IssueEmptyStepID        = "empty_step_id"
	IssueReservedStepID     = "reserved_step_id"
	IssueDanglingTarget     = "dangling_target"
	IssueDanglingData       = "dangling_data_reference"
	IssueUnknownSource      = "unknown_source_description"
	IssueUnreachableStep    = "unreachable_step"
	IssueInvalidCriterion   = "invalid_criterion"
	IssueInvalidInputSchema = "invalid_inputs_schema"
	IssueSchemaViolation    = "schema_violation"
)

// ValidationIssue is a single validation problem with location context.
type ValidationIssue struct {
	Path     string             `json:"path"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationResult aggregates all issues from the validation pipeline.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *ValidationResult) AddError(path, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		Path: path, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *ValidationResult) AddWarning(path, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Path: path, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another ValidationResult into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ToError converts the result to an *Error carrying code if invalid, nil if valid.
func (r *ValidationResult) ToError(code string) error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("document has %d structural problems", len(r.Errors))
		if code != ErrCodeStructural {
			msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
		}
	}

	return NewError(code, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
