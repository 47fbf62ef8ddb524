package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rendis/arazzo-graph/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "https://arazzo-graph.dev/schemas/document.json"

// documentSchemaJSON covers the part of the Arazzo 1.0 document shape the
// graph and editor rely on. Extension fields are allowed.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://arazzo-graph.dev/schemas/document.json",
  "type": "object",
  "required": ["arazzo", "info", "workflows"],
  "properties": {
    "arazzo": {
      "type": "string",
      "pattern": "^1\\.0\\.\\d+(-.+)?$"
    },
    "info": {
      "type": "object",
      "required": ["title", "version"],
      "properties": {
        "title": { "type": "string" },
        "version": { "type": "string" }
      }
    },
    "sourceDescriptions": {
      "type": ["array", "null"],
      "items": { "$ref": "#/$defs/sourceDescription" }
    },
    "workflows": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/workflow" }
    },
    "components": { "type": "object" }
  },
  "$defs": {
    "id": {
      "type": "string",
      "pattern": "^[A-Za-z0-9_\\-]+$"
    },
    "sourceDescription": {
      "type": "object",
      "required": ["name", "url"],
      "properties": {
        "name": { "$ref": "#/$defs/id" },
        "url": { "type": "string" },
        "type": { "enum": ["openapi", "arazzo"] }
      }
    },
    "workflow": {
      "type": "object",
      "required": ["workflowId", "steps"],
      "properties": {
        "workflowId": { "$ref": "#/$defs/id" },
        "steps": {
          "type": "array",
          "items": { "$ref": "#/$defs/step" }
        },
        "parameters": {
          "type": "array",
          "items": { "$ref": "#/$defs/parameter" }
        },
        "successActions": { "$ref": "#/$defs/actions" },
        "failureActions": { "$ref": "#/$defs/actions" },
        "outputs": { "$ref": "#/$defs/outputs" }
      }
    },
    "step": {
      "type": "object",
      "required": ["stepId"],
      "properties": {
        "stepId": { "$ref": "#/$defs/id" },
        "operationId": { "type": "string" },
        "operationPath": { "type": "string" },
        "workflowId": { "type": "string" },
        "parameters": {
          "type": "array",
          "items": { "$ref": "#/$defs/parameter" }
        },
        "successCriteria": {
          "type": "array",
          "items": { "$ref": "#/$defs/criterion" }
        },
        "onSuccess": { "$ref": "#/$defs/actions" },
        "onFailure": { "$ref": "#/$defs/actions" },
        "outputs": { "$ref": "#/$defs/outputs" }
      },
      "oneOf": [
        { "required": ["operationId"] },
        { "required": ["operationPath"] },
        { "required": ["workflowId"] }
      ]
    },
    "parameter": {
      "type": "object",
      "anyOf": [
        { "required": ["reference"] },
        {
          "required": ["name"],
          "properties": {
            "in": { "enum": ["path", "query", "header", "cookie"] }
          }
        }
      ]
    },
    "criterion": {
      "type": "object",
      "required": ["condition"],
      "properties": {
        "condition": { "type": "string", "minLength": 1 },
        "context": { "type": "string" }
      }
    },
    "actions": {
      "type": "array",
      "items": {
        "anyOf": [
          {
            "type": "object",
            "required": ["reference"],
            "properties": {
              "reference": { "type": "string", "pattern": "^\\$components\\.(successActions|failureActions)\\." }
            }
          },
          { "$ref": "#/$defs/action" }
        ]
      }
    },
    "action": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "type": { "enum": ["goto", "end", "retry"] },
        "stepId": { "type": "string" },
        "workflowId": { "type": "string" },
        "retryAfter": { "type": "number", "minimum": 0 },
        "retryLimit": { "type": "integer", "minimum": 0 },
        "criteria": {
          "type": "array",
          "items": { "$ref": "#/$defs/criterion" }
        }
      },
      "not": { "required": ["stepId", "workflowId"] }
    },
    "outputs": {
      "type": "object",
      "propertyNames": { "pattern": "^[a-zA-Z0-9\\.\\-_]+$" },
      "additionalProperties": { "type": "string" }
    }
  }
}`

// JSONSchemaValidator checks documents against the embedded document schema
// and compiles workflow input schemas. It is safe for concurrent use.
type JSONSchemaValidator struct {
	documentSchema *jsonschema.Schema

	// mu guards the cache of compiled input schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the document
// schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add document schema resource: %w", err)
	}
	docSchema, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	return &JSONSchemaValidator{
		documentSchema: docSchema,
		cache:          make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateDocument checks doc against the document schema.
func (v *JSONSchemaValidator) ValidateDocument(doc *schema.Document) error {
	if doc == nil {
		return schema.NewError(schema.ErrCodeValidation, "document is nil")
	}
	value, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize document").WithCause(err)
	}
	if err := v.documentSchema.Validate(value); err != nil {
		return toSchemaError(err)
	}
	return nil
}

// CompileInputs checks that a workflow inputs value is a usable JSON Schema.
// A nil value is accepted.
func (v *JSONSchemaValidator) CompileInputs(inputs any) error {
	if inputs == nil {
		return nil
	}
	raw, err := json.Marshal(inputs)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "inputs schema is not serializable").WithCause(err)
	}
	if _, err := v.getOrCompile(raw); err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid inputs schema").WithCause(err)
	}
	return nil
}

// ValidateInputs checks sample inputs against a workflow inputs schema. A nil
// schema accepts anything.
func (v *JSONSchemaValidator) ValidateInputs(input map[string]any, inputs any) error {
	if inputs == nil {
		return nil
	}
	raw, err := json.Marshal(inputs)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "inputs schema is not serializable").WithCause(err)
	}
	compiled, err := v.getOrCompile(raw)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid inputs schema").WithCause(err)
	}
	if input == nil {
		input = map[string]any{}
	}
	value, err := toJSONValue(input)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize input").WithCause(err)
	}
	if err := compiled.Validate(value); err != nil {
		return toSchemaError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets its own URL and compiler.
	url := fmt.Sprintf("arazzo-graph://inputs/%d", len(v.cache))
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// toJSONValue round-trips a Go value through encoding/json so that numbers
// become json.Number, as the jsonschema library expects.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toSchemaError converts a jsonschema.ValidationError into an *schema.Error
// listing each leaf violation with its instance location.
func toSchemaError(err error) *schema.Error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
