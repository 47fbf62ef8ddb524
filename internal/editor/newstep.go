package editor

import (
	"fmt"

	"github.com/rendis/arazzo-graph/internal/catalog"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// NewStep builds a step for operationRef ready for AddStep. Its id is left
// empty so the session assigns the next generated one. When hints know the
// operation's method the default success criterion expects the matching
// status (POST 201, DELETE 204, otherwise 200).
func NewStep(operationRef string, hints catalog.Hints) schema.Step {
	method := ""
	if hints != nil {
		method, _ = hints.Method(operationRef)
	}
	return schema.Step{
		OperationID: operationRef,
		SuccessCriteria: []schema.Criterion{
			{Condition: fmt.Sprintf("$statusCode == %d", catalog.DefaultStatus(method))},
		},
	}
}
