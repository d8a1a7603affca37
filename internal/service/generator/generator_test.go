package generator_test

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/generator"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

// scriptedModel replays a fixed sequence of responses, one per call, so
// tests can drive the generator's retry loop deterministically.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.calls >= len(m.responses) {
		return &schema.Message{Role: schema.Assistant, Content: ""}, nil
	}
	resp := m.responses[m.calls]
	m.calls++
	return &schema.Message{Role: schema.Assistant, Content: resp}, nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	panic("streaming is a non-goal (§9) and unused by the generator")
}

func testSection() template.SectionSpec {
	return template.SectionSpec{
		SectionKey: "present_levels",
		RequiredFields: []template.FieldSpec{
			{Path: "summary", Type: "string"},
			{Path: "strengths", Type: "list_of_strings"},
		},
	}
}

func TestGenerateSectionHappyPath(t *testing.T) {
	m := &scriptedModel{responses: []string{`{"summary":"Reads below grade level.","strengths":["verbal reasoning"]}`}}
	g, err := (&generator.Config{ChatModel: m, ModelID: "test-model"}).Complete().New()
	require.NoError(t, err)

	section, err := g.GenerateSection(context.Background(), "prompt text", testSection())
	require.NoError(t, err)
	assert.Equal(t, "ok", section.Outcome)
	assert.Equal(t, 0, section.Retries)
	assert.Equal(t, "Reads below grade level.", section.Content["summary"])
}

func TestGenerateSectionRepairsMarkdownFence(t *testing.T) {
	m := &scriptedModel{responses: []string{
		"```json\n{\"summary\":\"ok\",\"strengths\":[\"a\"]}\n```\nHope that helps!",
	}}
	g, err := (&generator.Config{ChatModel: m}).Complete().New()
	require.NoError(t, err)

	section, err := g.GenerateSection(context.Background(), "prompt", testSection())
	require.NoError(t, err)
	assert.Equal(t, "ok", section.Content["summary"])
}

func TestGenerateSectionSchemaMismatchRetriesOnceThenFails(t *testing.T) {
	m := &scriptedModel{responses: []string{`{}`, `{}`}}
	g, err := (&generator.Config{ChatModel: m}).Complete().New()
	require.NoError(t, err)

	_, err = g.GenerateSection(context.Background(), "prompt", testSection())
	require.Error(t, err)
	assert.Equal(t, errorx.KindGenerationFailed, errorx.KindOf(err))
	assert.Equal(t, 2, m.calls, "one initial call plus one corrective retry")
}

func TestGenerateSectionEmptyResponseExhaustsRetries(t *testing.T) {
	m := &scriptedModel{responses: []string{"", "", ""}}
	g, err := (&generator.Config{ChatModel: m}).Complete().New()
	require.NoError(t, err)

	_, err = g.GenerateSection(context.Background(), "prompt", testSection())
	require.Error(t, err)
	assert.Equal(t, errorx.KindGenerationFailed, errorx.KindOf(err))
	assert.Equal(t, 3, m.calls)
}

func TestGenerateSectionTruncatesOverlongField(t *testing.T) {
	long := make([]byte, 50)
	for i := range long {
		long[i] = 'a'
	}
	m := &scriptedModel{responses: []string{`{"summary":"` + string(long) + `","strengths":["a"]}`}}
	g, err := (&generator.Config{ChatModel: m}).Complete().New()
	require.NoError(t, err)

	section := testSection()
	section.MaxLengthChars = 10
	result, err := g.GenerateSection(context.Background(), "prompt", section)
	require.NoError(t, err)
	assert.Contains(t, result.TruncatedFields, "summary")
	assert.LessOrEqual(t, len([]rune(result.Content["summary"].(string))), 10)
}
