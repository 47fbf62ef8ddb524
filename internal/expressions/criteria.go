package expressions

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rendis/arazzo-graph/pkg/schema"
)

// CriterionResult is the outcome of one criterion in a preview.
type CriterionResult struct {
	Condition string `json:"condition"`
	Type      string `json:"type"`
	Passed    bool   `json:"passed"`
	Error     string `json:"error,omitempty"`
}

// TranslateSimple rewrites a simple condition into CEL, replacing each
// runtime expression with refs[i]. The returned expressions are in refs order.
func TranslateSimple(condition string) (string, []*Expression) {
	refs := ClassifyAll(condition)
	if len(refs) == 0 {
		return condition, nil
	}
	var b strings.Builder
	last := 0
	kept := refs[:0]
	for _, ref := range refs {
		if ref.Offset < last {
			continue
		}
		b.WriteString(condition[last:ref.Offset])
		b.WriteString(refsVar + "[" + strconv.Itoa(len(kept)) + "]")
		last = ref.Offset + len(ref.Raw)
		kept = append(kept, ref)
	}
	b.WriteString(condition[last:])
	return b.String(), kept
}

// CheckCriterion validates c without a sample: simple conditions must compile
// and regex conditions must be valid patterns. JSONPath and XPath criteria
// are accepted unchecked.
func (ev *Evaluator) CheckCriterion(c schema.Criterion) error {
	if strings.TrimSpace(c.Condition) == "" {
		return schema.NewError(schema.ErrCodeExpression, "criterion condition is empty")
	}
	switch c.Type.OrDefault() {
	case schema.CriterionSimple:
		translated, _ := TranslateSimple(c.Condition)
		return ev.cel.Check(translated)
	case schema.CriterionRegex:
		if c.Context == "" {
			return schema.NewError(schema.ErrCodeExpression, "regex criterion requires a context")
		}
		if _, err := regexp.Compile(c.Condition); err != nil {
			return schema.NewErrorf(schema.ErrCodeExpression, "invalid regex %q", c.Condition).WithCause(err)
		}
	}
	return nil
}

// EvaluateCriterion evaluates c against s.
func (ev *Evaluator) EvaluateCriterion(ctx context.Context, c schema.Criterion, s *Sample) (bool, error) {
	if err := ev.CheckCriterion(c); err != nil {
		return false, err
	}
	switch c.Type.OrDefault() {
	case schema.CriterionSimple:
		return ev.evaluateSimple(ctx, c.Condition, s)
	case schema.CriterionRegex:
		v, err := ev.Resolve(ctx, c.Context, s)
		if err != nil {
			return false, err
		}
		if v == nil {
			return false, nil
		}
		return regexp.MustCompile(c.Condition).MatchString(fmt.Sprint(v)), nil
	default:
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s criteria are not evaluated in previews", c.Type.OrDefault())
	}
}

// EvaluateCriteria evaluates every criterion; all must pass. An empty list
// passes.
func (ev *Evaluator) EvaluateCriteria(ctx context.Context, cs []schema.Criterion, s *Sample) (bool, []CriterionResult) {
	passed := true
	results := make([]CriterionResult, 0, len(cs))
	for _, c := range cs {
		ok, err := ev.EvaluateCriterion(ctx, c, s)
		r := CriterionResult{Condition: c.Condition, Type: string(c.Type.OrDefault()), Passed: ok}
		if err != nil {
			r.Error = err.Error()
		}
		passed = passed && ok
		results = append(results, r)
	}
	return passed, results
}

// PreviewOutputs resolves every step output against s. Outputs that fail to
// resolve are reported in the error map.
func (ev *Evaluator) PreviewOutputs(ctx context.Context, outputs map[string]string, s *Sample) (map[string]any, map[string]string) {
	values := make(map[string]any, len(outputs))
	var errs map[string]string
	for name, text := range outputs {
		v, err := ev.Resolve(ctx, text, s)
		if err != nil {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[name] = err.Error()
			continue
		}
		values[name] = v
	}
	return values, errs
}

func (ev *Evaluator) evaluateSimple(ctx context.Context, condition string, s *Sample) (bool, error) {
	translated, refs := TranslateSimple(condition)
	values := make([]any, len(refs))
	for i, ref := range refs {
		v, err := ev.ResolveExpression(ctx, ref, s)
		if err != nil {
			return false, err
		}
		values[i] = v
	}
	out, err := ev.cel.Evaluate(ctx, translated, map[string]any{refsVar: values})
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"condition %q evaluated to %T, want bool", condition, out).
			WithDetails(map[string]any{"expression": condition})
	}
	return b, nil
}
