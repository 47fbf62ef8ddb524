package expressions

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/itchyny/gojq"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// GoJQEngine implements the Engine interface using GoJQ. Body pointers such as
// $response.body#/data/0/id are translated to jq paths and run here.
// Thread-safe: compiled *Code objects are cached and reused across goroutines.
type GoJQEngine struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewGoJQEngine creates a new GoJQ expression engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{
		cache: make(map[string]*gojq.Code),
	}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Evaluate runs a jq expression with data as its input object.
//
// jq expressions can produce multiple outputs. When there is exactly one output,
// it is returned directly. When there are multiple outputs, they are collected
// into a slice and returned as []any.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	var input any
	if data != nil {
		input = data
	}
	return e.Query(ctx, expression, input)
}

// Query runs a jq expression against an arbitrary decoded JSON value.
func (e *GoJQEngine) Query(ctx context.Context, expression string, input any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeExpression, "empty jq expression")
	}

	code, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, normalizeForJQ(input))

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeExpression,
				"jq evaluation failed for %q: %s", expression, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"expression": expression})
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// ResolvePointer returns the value at a JSON pointer ("/a/0/b") inside
// input. An empty pointer returns input unchanged.
func (e *GoJQEngine) ResolvePointer(ctx context.Context, pointer string, input any) (any, error) {
	if pointer == "" {
		return input, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, schema.NewErrorf(schema.ErrCodeExpression, "invalid JSON pointer %q", pointer)
	}
	return e.Query(ctx, PointerQuery(pointer), input)
}

// PointerQuery translates a JSON pointer into an equivalent jq program.
// Numeric segments index arrays and fall back to object keys otherwise.
func PointerQuery(pointer string) string {
	if pointer == "" {
		return "."
	}
	segs := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		key := strconv.Quote(seg)
		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			parts = append(parts, `(if type == "array" then .[`+strconv.Itoa(n)+`] else .[`+key+`] end)`)
			continue
		}
		parts = append(parts, ".["+key+"]")
	}
	return strings.Join(parts, " | ")
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (e *GoJQEngine) getOrCompile(expression string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := e.cache[expression]; ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"jq parse error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	code, err := gojq.Compile(query,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"jq compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = code
	return code, nil
}

// normalizeForJQ converts Go native types to jq-compatible types.
// YAML decoding yields int for whole numbers; jq works on float64.
func normalizeForJQ(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = normalizeForJQ(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = normalizeForJQ(v)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

var _ Engine = (*GoJQEngine)(nil)
