package expressions

import "context"

// Engine evaluates expressions against a data map.
// Three implementations: CEL (criteria), GoJQ (body pointers), Expr (graph filters).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
