package flattener_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/flattener"
)

func newFlattener() *flattener.Flattener {
	return (&flattener.Config{}).Complete().New()
}

func testSection() template.SectionSpec {
	return template.SectionSpec{
		SectionKey: "present_levels",
		RequiredFields: []template.FieldSpec{
			{Path: "summary", Type: "string"},
			{Path: "goals", Type: "list_of_strings"},
		},
	}
}

func TestFlattenSectionUnwrapsNestedScalarString(t *testing.T) {
	f := newFlattener()
	content := map[string]any{
		"summary": map[string]any{"text": "Reads below grade level."},
		"goals":   []any{"Improve fluency"},
	}

	out, stats := f.FlattenSection(content, testSection())
	assert.Equal(t, "Reads below grade level.", out["summary"])
	assert.Equal(t, 1, stats.FieldsFlattened)
}

func TestFlattenSectionFlattensListOfObjects(t *testing.T) {
	f := newFlattener()
	content := map[string]any{
		"summary": "ok",
		"goals": []any{
			map[string]any{"goal": "Improve fluency"},
			map[string]any{"goal": "Increase comprehension"},
		},
	}

	out, stats := f.FlattenSection(content, testSection())
	goals, ok := out["goals"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Improve fluency", "Increase comprehension"}, goals)
	assert.Equal(t, 1, stats.FieldsFlattened)
}

func TestFlattenSectionDedupesCaseWhitespaceVariantKeys(t *testing.T) {
	f := newFlattener()
	content := map[string]any{
		"summary":  "first",
		" Summary ": "second",
		"goals":    []any{"a"},
	}

	out, stats := f.FlattenSection(content, testSection())
	assert.Len(t, out, 2)
	assert.GreaterOrEqual(t, stats.FieldsFlattened, 1)
}

func TestFlattenSectionFlagsExcessiveDepthWithoutTouching(t *testing.T) {
	f := (&flattener.Config{MaxDepth: 1}).Complete().New()
	nested := map[string]any{"text": map[string]any{"text": "too deep"}}
	content := map[string]any{
		"summary": nested,
		"goals":   []any{"a"},
	}

	out, stats := f.FlattenSection(content, testSection())
	assert.Equal(t, nested, out["summary"], "left untouched past max depth")
	assert.Contains(t, stats.FlaggedDepth, "summary")
}

func TestFlattenIsIdempotent(t *testing.T) {
	f := newFlattener()
	content := map[string]any{
		"summary": map[string]any{"text": "Reads below grade level."},
		"goals": []any{
			map[string]any{"goal": "Improve fluency"},
		},
	}
	assert.True(t, f.Idempotent(content, testSection()))
}

func TestFlattenContentAppliesPerSectionInTemplateOrder(t *testing.T) {
	f := newFlattener()
	tmpl := template.Template{
		Sections: []template.SectionSpec{testSection()},
	}
	content := map[string]map[string]any{
		"present_levels": {
			"summary": map[string]any{"text": "ok"},
			"goals":   []any{"a"},
		},
	}

	out, stats := f.FlattenContent(content, tmpl)
	require.Contains(t, out, "present_levels")
	assert.Equal(t, "ok", out["present_levels"]["summary"])
	assert.Equal(t, 1, stats.FieldsFlattened)
}
