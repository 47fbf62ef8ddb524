package expressions

import (
	"regexp"
	"sort"
)

// Kind is the category of a runtime expression.
type Kind string

const (
	KindInputs     Kind = "inputs"
	KindSteps      Kind = "steps"
	KindURL        Kind = "url"
	KindMethod     Kind = "method"
	KindStatusCode Kind = "statusCode"
	KindRequest    Kind = "request"
	KindResponse   Kind = "response"
	KindComponents Kind = "components"
)

// Expression describes one reference found in a string.
type Expression struct {
	Kind     Kind   `json:"kind"`
	Raw      string `json:"raw"`
	Offset   int    `json:"offset"`
	Name     string `json:"name,omitempty"`     // input, header/query/path parameter or component name
	StepID   string `json:"stepId,omitempty"`   // steps
	Field    string `json:"field,omitempty"`    // steps
	Part     string `json:"part,omitempty"`     // request/response: header, query, path, body
	Category string `json:"category,omitempty"` // components
	Pointer  string `json:"pointer,omitempty"`  // JSON pointer after '#', e.g. "/data/0/id"
}

const (
	ident   = `[A-Za-z0-9_\-]+`
	pointer = `(?:#(/[^\s}]*))?`
)

type pattern struct {
	kind  Kind
	re    *regexp.Regexp
	build func(e *Expression, groups []string)
}

// patterns are tried in this order; the first one found anywhere in the text
// classifies it.
var patterns = []pattern{
	{KindInputs, regexp.MustCompile(`\$inputs\.(` + ident + `)`), func(e *Expression, g []string) {
		e.Name = g[1]
	}},
	{KindSteps, regexp.MustCompile(`\$steps\.(` + ident + `)\.outputs\.(` + ident + `)` + pointer), func(e *Expression, g []string) {
		e.StepID, e.Field, e.Pointer = g[1], g[2], g[3]
	}},
	{KindURL, regexp.MustCompile(`\$url\b`), nil},
	{KindMethod, regexp.MustCompile(`\$method\b`), nil},
	{KindStatusCode, regexp.MustCompile(`\$statusCode\b`), nil},
	{KindRequest, regexp.MustCompile(`\$request\.(?:(header|query|path)\.(` + ident + `)|(body)` + pointer + `)`), func(e *Expression, g []string) {
		if g[1] != "" {
			e.Part, e.Name = g[1], g[2]
			return
		}
		e.Part, e.Pointer = g[3], g[4]
	}},
	{KindResponse, regexp.MustCompile(`\$response\.(?:(header)\.(` + ident + `)|(body)` + pointer + `)`), func(e *Expression, g []string) {
		if g[1] != "" {
			e.Part, e.Name = g[1], g[2]
			return
		}
		e.Part, e.Pointer = g[3], g[4]
	}},
	{KindComponents, regexp.MustCompile(`\$components\.(inputs|parameters|successActions|failureActions)\.(` + ident + `)`), func(e *Expression, g []string) {
		e.Category, e.Name = g[1], g[2]
	}},
}

// Classify returns the descriptor of the first supported reference found
// anywhere in text, or nil when text is a literal.
//
// Matching is intentionally lenient: a reference embedded in a longer
// sentence is recognized, so a literal that merely contains "$inputs.x" is
// classified as a reference too.
func Classify(text string) *Expression {
	for _, p := range patterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		return p.describe(text, loc)
	}
	return nil
}

// ClassifyAll returns every reference in text ordered by position.
func ClassifyAll(text string) []*Expression {
	var out []*Expression
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, p.describe(text, loc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// IsExpression reports whether text contains any supported reference.
func IsExpression(text string) bool {
	return Classify(text) != nil
}

func (p pattern) describe(text string, loc []int) *Expression {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	e := &Expression{Kind: p.kind, Raw: groups[0], Offset: loc[0]}
	if p.build != nil {
		p.build(e, groups)
	}
	return e
}

// StepRefs returns every $steps reference found in v, walking decoded
// maps and slices. Non-string scalars are ignored.
func StepRefs(v any) []*Expression {
	var out []*Expression
	walkStrings(v, func(s string) {
		for _, e := range ClassifyAll(s) {
			if e.Kind == KindSteps {
				out = append(out, e)
			}
		}
	})
	return out
}

func walkStrings(v any, fn func(string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(val[k], fn)
		}
	case []any:
		for _, e := range val {
			walkStrings(e, fn)
		}
	}
}
