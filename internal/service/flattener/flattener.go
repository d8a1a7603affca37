// Package flattener implements the Response Flattener (§4.7): it
// normalizes the pathological nested-JSON shapes an LLM tends to return
// (a string field wrapped in {"text": "..."}, a list-of-strings field
// wrapped in a list of single-key objects, repeated equivalent keys) down
// to the shape a template's SectionSpec declares, without ad-hoc recursive
// traversal of duck-typed JSON (§9 design note).
package flattener

import (
	"strings"
	"time"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
)

// Config bundles the Flattener's one tunable (§4.7, §6).
type Config struct {
	MaxDepth int
}

type completedConfig struct{ *Config }

// Complete fills the default max depth (§6: flattener.max-depth, default 5).
func (c *Config) Complete() *completedConfig {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 5
	}
	return &completedConfig{c}
}

// New builds a Flattener from a completed Config.
func (c *completedConfig) New() *Flattener {
	return &Flattener{maxDepth: c.MaxDepth}
}

// Flattener applies the §4.7 normalization rules within each section of the
// assembled IEP content; no separate pass runs across the section keys.
type Flattener struct {
	maxDepth int
}

// Stats is the observability record §4.7 requires: "input bytes, output
// bytes, number of fields flattened, time spent".
type Stats struct {
	InputBytes     int64
	OutputBytes    int64
	FieldsFlattened int
	FlaggedDepth   []string // field paths left untouched for exceeding max depth
	Duration       time.Duration
}

// FlattenSection normalizes one section's content object against its
// declared field types (§4.7 rules 1-2), then deduplicates
// case/whitespace-variant keys within the section (rule 3).
func (f *Flattener) FlattenSection(content map[string]any, section template.SectionSpec) (map[string]any, Stats) {
	start := time.Now()
	stats := Stats{InputBytes: approxSize(content)}

	deduped, dupesRemoved := dedupeKeys(content)
	stats.FieldsFlattened += dupesRemoved

	fieldTypes := make(map[string]string, len(section.RequiredFields))
	for _, fs := range section.RequiredFields {
		fieldTypes[fs.Path] = fs.Type
	}

	out := make(map[string]any, len(deduped))
	for key, value := range deduped {
		declared := fieldTypes[key]
		flattenedValue, changed, flagged := f.flattenField(value, declared, 1)
		out[key] = flattenedValue
		if changed {
			stats.FieldsFlattened++
		}
		if flagged {
			stats.FlaggedDepth = append(stats.FlaggedDepth, key)
		}
	}

	stats.OutputBytes = approxSize(out)
	stats.Duration = time.Since(start)
	return out, stats
}

// flattenField applies rules 1-2 to a single field's value given its
// declared type. A value whose object/list nesting, counted from depth,
// goes beyond maxDepth is flagged and left untouched (rule 4).
func (f *Flattener) flattenField(value any, declaredType string, depth int) (result any, changed bool, flaggedDepth bool) {
	if depth-1+nestingDepth(value) > f.maxDepth {
		return value, false, true
	}

	switch declaredType {
	case "string":
		if obj, ok := value.(map[string]any); ok {
			if scalar, ok := singleScalarValue(obj); ok {
				return scalar, true, false
			}
		}
	case "list_of_strings":
		if list, ok := value.([]any); ok {
			flat, anyChanged := flattenStringList(list)
			return flat, anyChanged, false
		}
	case "object":
		if obj, ok := value.(map[string]any); ok {
			nested, nestedChanged := dedupeKeysMap(obj)
			return nested, nestedChanged > 0, false
		}
	}
	return value, false, false
}

// nestingDepth counts the levels of objects and lists in v: a scalar is 0,
// {"text": "x"} is 1, {"text": {"text": "x"}} is 2.
func nestingDepth(v any) int {
	deepest := 0
	switch t := v.(type) {
	case map[string]any:
		for _, item := range t {
			deepest = max(deepest, nestingDepth(item))
		}
	case []any:
		for _, item := range t {
			deepest = max(deepest, nestingDepth(item))
		}
	default:
		return 0
	}
	return deepest + 1
}

// singleScalarValue implements rule 1: "a field whose declared type is
// string but whose value is a nested object containing a single
// scalar-bearing key (e.g. {"text": "..."}) is replaced by that scalar."
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

// flattenStringList implements rule 2: "a field whose declared type is a
// list of strings but whose value is a list of objects with a single
// string-bearing field is flattened to the list of those strings." Lists
// that are already plain strings pass through unchanged.
func flattenStringList(list []any) ([]any, bool) {
	out := make([]any, len(list))
	changed := false
	for i, item := range list {
		switch v := item.(type) {
		case string:
			out[i] = v
		case map[string]any:
			if s, ok := singleScalarValue(v); ok {
				out[i] = s
				changed = true
				continue
			}
			out[i] = v
		default:
			out[i] = v
		}
	}
	return out, changed
}

// dedupeKeys implements rule 3 at the top level of a content map: "a field
// containing repeated equivalent keys (case/whitespace variants) is
// deduplicated, keeping the first occurrence." Go map iteration order is
// unspecified, so the caller-visible semantics only guarantee "exactly one
// of the equivalent keys survives" rather than a specific first occurrence.
func dedupeKeys(content map[string]any) (map[string]any, int) {
	return dedupeKeysMap(content)
}

func dedupeKeysMap(m map[string]any) (map[string]any, int) {
	seen := make(map[string]string, len(m)) // normalized -> first original key
	out := make(map[string]any, len(m))
	removed := 0
	for key, value := range m {
		norm := normalizeKey(key)
		if original, ok := seen[norm]; ok {
			if key != original {
				removed++
			}
			continue
		}
		seen[norm] = key
		out[key] = value
	}
	return out, removed
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// approxSize is a byte-size proxy good enough for the Stats record; an
// exact JSON re-encode isn't needed for observability purposes.
func approxSize(v map[string]any) int64 {
	var total int64
	for k, val := range v {
		total += int64(len(k))
		total += approxValueSize(val)
	}
	return total
}

func approxValueSize(v any) int64 {
	switch t := v.(type) {
	case string:
		return int64(len(t))
	case map[string]any:
		return approxSize(t)
	case []any:
		var total int64
		for _, item := range t {
			total += approxValueSize(item)
		}
		return total
	default:
		return 8
	}
}

// FlattenContent applies FlattenSection to every section of an assembled
// IEP's content, in template section order, and aggregates per-section
// Stats into one record for the GenerationTrace. Content keys that are not
// sections of tmpl are dropped; no further pass runs across section keys.
func (f *Flattener) FlattenContent(content map[string]map[string]any, tmpl template.Template) (map[string]map[string]any, Stats) {
	start := time.Now()
	out := make(map[string]map[string]any, len(content))
	var agg Stats

	for _, section := range tmpl.Sections {
		sectionContent, ok := content[section.SectionKey]
		if !ok {
			continue
		}
		flattened, stats := f.FlattenSection(sectionContent, section)
		out[section.SectionKey] = flattened
		agg.InputBytes += stats.InputBytes
		agg.OutputBytes += stats.OutputBytes
		agg.FieldsFlattened += stats.FieldsFlattened
		agg.FlaggedDepth = append(agg.FlaggedDepth, stats.FlaggedDepth...)
	}
	agg.Duration = time.Since(start)
	return out, agg
}

// Idempotent reports whether flattening content a second time changes
// nothing further, the property §8 invariant 6 requires
// (flatten(flatten(x)) == flatten(x)). Callers use this in tests, not in
// the hot path.
func (f *Flattener) Idempotent(content map[string]any, section template.SectionSpec) bool {
	once, _ := f.FlattenSection(content, section)
	twice, _ := f.FlattenSection(once, section)
	return deepEqual(once, twice)
}

func deepEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && deepEqual(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
