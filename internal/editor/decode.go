package editor

import (
	"encoding/json"

	"github.com/rendis/arazzo-graph/pkg/schema"
)

// DecodeMutation builds the mutation named kind from its JSON payload.
func DecodeMutation(kind string, payload []byte) (Mutation, error) {
	var m Mutation
	switch kind {
	case KindAddStep:
		m = &AddStep{}
	case KindDeleteStep:
		m = &DeleteStep{}
	case KindRenameStep:
		m = &RenameStep{}
	case KindConnect:
		m = &Connect{}
	case KindDisconnect:
		m = &Disconnect{}
	case KindInsertStepOnEdge:
		m = &InsertStepOnEdge{}
	case KindReorder:
		m = &Reorder{}
	case KindUpdateStep:
		m = &UpdateStep{}
	case KindSelect:
		m = &Select{}
	case KindMoveNode:
		m = &MoveNode{}
	case KindSetActiveWorkflow:
		m = &SetActiveWorkflow{}
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown mutation kind %q", kind)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, m); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeDecode, "invalid %s payload", kind).WithCause(err)
		}
	}
	return m, nil
}
