package catalog

import (
	"strings"

	"github.com/rendis/arazzo-graph/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Hints supplies optional facts about operations. Implementations must be
// safe for concurrent reads.
type Hints interface {
	// Method returns the upper-case HTTP method of an operation reference.
	Method(operationRef string) (string, bool)
}

// Static is a fixed operation ref -> method table.
type Static map[string]string

// Method implements Hints. A source-qualified reference ("petStore.findPet"
// or "$sourceDescriptions.petStore.findPet") falls back to its bare
// operation id.
func (s Static) Method(operationRef string) (string, bool) {
	if m, ok := s[operationRef]; ok {
		return m, true
	}
	if i := strings.LastIndex(operationRef, "."); i >= 0 {
		if m, ok := s[operationRef[i+1:]]; ok {
			return m, true
		}
	}
	return "", false
}

var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// LoadOpenAPI reads the operation ids of an OpenAPI description (YAML or
// JSON) into a Static table.
func LoadOpenAPI(data []byte) (Static, error) {
	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeDecode, "failed to parse OpenAPI description").WithCause(err)
	}
	out := make(Static)
	for _, item := range doc.Paths {
		for _, method := range httpMethods {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			if id, ok := op["operationId"].(string); ok && id != "" {
				out[id] = strings.ToUpper(method)
			}
		}
	}
	return out, nil
}

// DefaultStatus returns the status code a new step expects for method.
func DefaultStatus(method string) int {
	switch strings.ToUpper(method) {
	case "POST":
		return 201
	case "DELETE":
		return 204
	default:
		return 200
	}
}
