package expressions

import (
	"context"
	"fmt"
	"strings"

	"github.com/rendis/arazzo-graph/pkg/schema"
)

// Message is a sample HTTP request or response.
type Message struct {
	Header map[string]string `json:"header,omitempty" yaml:"header,omitempty"`
	Query  map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	Path   map[string]string `json:"path,omitempty" yaml:"path,omitempty"`
	Body   any               `json:"body,omitempty" yaml:"body,omitempty"`
}

// Sample is a hand-written exchange used to preview expressions and criteria
// without calling any API.
type Sample struct {
	URL        string                    `json:"url,omitempty" yaml:"url,omitempty"`
	Method     string                    `json:"method,omitempty" yaml:"method,omitempty"`
	StatusCode int                       `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Request    Message                   `json:"request" yaml:"request"`
	Response   Message                   `json:"response" yaml:"response"`
	Inputs     map[string]any            `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Steps      map[string]map[string]any `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Evaluator resolves runtime expressions against a Sample and evaluates
// success criteria. Safe for concurrent use.
type Evaluator struct {
	cel *CELEngine
	jq  *GoJQEngine
}

// NewEvaluator creates an Evaluator with fresh CEL and jq engines.
func NewEvaluator() (*Evaluator, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &Evaluator{cel: celEngine, jq: NewGoJQEngine()}, nil
}

// Resolve evaluates text against s. Text that is exactly one expression
// yields the raw value. Text that embeds expressions ("id={$inputs.id}")
// yields a string with each reference substituted. Literals are returned as-is.
func (ev *Evaluator) Resolve(ctx context.Context, text string, s *Sample) (any, error) {
	refs := ClassifyAll(text)
	if len(refs) == 0 {
		return text, nil
	}
	if len(refs) == 1 && strings.TrimSpace(text) == refs[0].Raw {
		return ev.ResolveExpression(ctx, refs[0], s)
	}

	var b strings.Builder
	last := 0
	for _, ref := range refs {
		start, end := ref.Offset, ref.Offset+len(ref.Raw)
		// Embedded references are written as {$...}; drop the braces.
		if start > 0 && text[start-1] == '{' && end < len(text) && text[end] == '}' {
			start--
			end++
		}
		if start < last {
			continue
		}
		v, err := ev.ResolveExpression(ctx, ref, s)
		if err != nil {
			return nil, err
		}
		b.WriteString(text[last:start])
		if v != nil {
			b.WriteString(fmt.Sprint(v))
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// ResolveExpression returns the value e refers to inside s. Missing values
// resolve to nil.
func (ev *Evaluator) ResolveExpression(ctx context.Context, e *Expression, s *Sample) (any, error) {
	if s == nil {
		s = &Sample{}
	}
	switch e.Kind {
	case KindInputs:
		return s.Inputs[e.Name], nil
	case KindSteps:
		outputs := s.Steps[e.StepID]
		return ev.jq.ResolvePointer(ctx, e.Pointer, outputs[e.Field])
	case KindURL:
		return s.URL, nil
	case KindMethod:
		return s.Method, nil
	case KindStatusCode:
		return s.StatusCode, nil
	case KindRequest:
		return ev.resolveMessage(ctx, e, &s.Request)
	case KindResponse:
		return ev.resolveMessage(ctx, e, &s.Response)
	default:
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"%s references cannot be previewed", e.Kind).
			WithDetails(map[string]any{"expression": e.Raw})
	}
}

func (ev *Evaluator) resolveMessage(ctx context.Context, e *Expression, m *Message) (any, error) {
	switch e.Part {
	case "header":
		for k, v := range m.Header {
			if strings.EqualFold(k, e.Name) {
				return v, nil
			}
		}
		return nil, nil
	case "query":
		return lookup(m.Query, e.Name), nil
	case "path":
		return lookup(m.Path, e.Name), nil
	default:
		return ev.jq.ResolvePointer(ctx, e.Pointer, m.Body)
	}
}

func lookup(m map[string]string, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	return nil
}
