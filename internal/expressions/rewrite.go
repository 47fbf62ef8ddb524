package expressions

import "regexp"

var stepRefRe = regexp.MustCompile(`\$steps\.(` + ident + `)`)

// RewriteStepRefs replaces every "$steps.<from>" token in text with
// "$steps.<to>". A token only matches when the whole step id equals from, so
// renaming "a" leaves "$steps.ab" alone.
func RewriteStepRefs(text, from, to string) string {
	if from == "" || from == to {
		return text
	}
	return stepRefRe.ReplaceAllStringFunc(text, func(tok string) string {
		if tok[len("$steps."):] != from {
			return tok
		}
		return "$steps." + to
	})
}

// RewriteValue applies RewriteStepRefs to every string inside v and returns
// the rewritten copy. Maps and slices are rebuilt; v is not modified.
func RewriteValue(v any, from, to string) any {
	switch val := v.(type) {
	case string:
		return RewriteStepRefs(val, from, to)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = RewriteValue(e, from, to)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = RewriteValue(e, from, to)
		}
		return out
	default:
		return v
	}
}

// ReferencesStep reports whether text contains a "$steps.<stepID>" token.
func ReferencesStep(text, stepID string) bool {
	for _, m := range stepRefRe.FindAllStringSubmatch(text, -1) {
		if m[1] == stepID {
			return true
		}
	}
	return false
}
