package generator

import (
	"fmt"
	"strings"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// jsonParseError and schemaMismatchError are the two classified failure
// modes from §4.6 steps 1-2. They are plain errors, not errorx.Coder
// values, because they are intermediate signals consumed by the retry
// loop in generator.go, never surfaced to a caller directly.
type jsonParseError struct{ cause error }

func (e *jsonParseError) Error() string { return fmt.Sprintf("json parse error: %v", e.cause) }
func (e *jsonParseError) Unwrap() error { return e.cause }

type schemaMismatchError struct {
	field  string
	reason string
}

func (e *schemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: field %q %s", e.field, e.reason)
}

// parseAndRepair attempts a JSON parse, applying one bounded repair pass on
// failure (§4.6 step 1: "strip leading/trailing prose; unescape commonly
// mis-escaped quote patterns").
func parseAndRepair(raw string) (map[string]any, error) {
	obj, err := unmarshalObject(raw)
	if err == nil {
		return obj, nil
	}

	repaired := repair(raw)
	obj, err2 := unmarshalObject(repaired)
	if err2 != nil {
		return nil, &jsonParseError{cause: err}
	}
	return obj, nil
}

func unmarshalObject(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// repair strips leading/trailing prose around the outermost JSON object and
// unescapes the quote patterns models most commonly over-escape.
func repair(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	s = strings.ReplaceAll(s, `\\"`, `"`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.TrimSpace(s)
}

// checkSchema validates obj against section.RequiredFields (§4.6 step 2).
// Returns a *schemaMismatchError naming the first missing or wrongly-typed
// field, or nil if obj satisfies the schema.
func checkSchema(obj map[string]any, section template.SectionSpec) error {
	for _, f := range section.RequiredFields {
		v, ok := obj[f.Path]
		if !ok {
			return &schemaMismatchError{field: f.Path, reason: "is missing"}
		}
		if !matchesType(v, f.Type) {
			return &schemaMismatchError{field: f.Path, reason: fmt.Sprintf("has wrong type for %q", f.Type)}
		}
	}
	return nil
}

// matchesType checks v against declared loosely enough to let the two
// pathological shapes the Flattener normalizes (§4.7 rules 1-2) through:
// a string field wrapped as {"<key>": "..."}, and a list_of_strings field
// returned as a list of single-key objects. Anything stricter belongs to
// the Flattener, not this gate (§4.6/§4.7 division of labor).
func matchesType(v any, declared string) bool {
	switch declared {
	case "string":
		if _, ok := v.(string); ok {
			return true
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return false
		}
		_, ok = singleScalarValue(obj)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "list_of_strings":
		list, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			switch t := item.(type) {
			case string:
				continue
			case map[string]any:
				if _, ok := singleScalarValue(t); ok {
					continue
				}
				return false
			default:
				return false
			}
		}
		return true
	default:
		return true
	}
}

// singleScalarValue reports whether obj has exactly one key whose value is
// a string, the {"text": "..."} shape the Flattener unwraps.
func singleScalarValue(obj map[string]any) (string, bool) {
	if len(obj) != 1 {
		return "", false
	}
	for _, v := range obj {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// truncateOverlong walks every string field and truncates it to
// max_length_chars with an ellipsis marker when it's declared and
// exceeded, returning the names of the fields it touched (§4.6 step 3:
// "truncate ... record a trace warning, not a failure").
func truncateOverlong(obj map[string]any, section template.SectionSpec) []string {
	if section.MaxLengthChars <= 0 {
		return nil
	}
	var touched []string
	for k, v := range obj {
		s, ok := v.(string)
		if !ok || len(s) <= section.MaxLengthChars {
			continue
		}
		limit := section.MaxLengthChars
		if limit > 1 {
			limit--
		}
		obj[k] = s[:limit] + "…"
		touched = append(touched, k)
	}
	return touched
}
