package promptbuilder_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/promptbuilder"
	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
)

type fakeSearcher struct {
	hits []vectorindex.SearchHit
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ vectorindex.Filter) ([]vectorindex.SearchHit, error) {
	return f.hits, f.err
}

func newTestBuilder(t *testing.T, s promptbuilder.Searcher) *promptbuilder.Builder {
	t.Helper()
	b, err := (&promptbuilder.Config{Index: s}).Complete().New()
	require.NoError(t, err)
	return b
}

func samplePromptContext() *promptbuilder.Context {
	return &promptbuilder.Context{
		Student: &student.Student{FirstName: "Jamie", LastName: "Rivera", Grade: 4, DisabilityCodes: []string{"SLD"}},
		Profile: &profile.Profile{
			Needs:     []profile.Domain{profile.DomainReading, profile.DomainMath},
			Strengths: []profile.Domain{profile.DomainVerbalComprehension},
		},
		Section: template.SectionSpec{
			SectionKey:     "present_levels",
			HumanTitle:     "Present Levels of Performance",
			GuidanceText:   "Summarize current academic performance.",
			RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}},
			MaxLengthChars: 2000,
		},
	}
}

func TestBuildIncludesCriticalConstraintsVerbatim(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{})
	result, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)
	assert.Contains(t, result.PromptText, "Do not invent demographic facts beyond the provided student profile.")
	assert.Contains(t, result.PromptText, "Escape embedded quotes.")
}

func TestBuildFixedSlotOrder(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{})
	result, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)

	role := strings.Index(result.PromptText, "special education case manager")
	profileIdx := strings.Index(result.PromptText, "Student profile")
	constraints := strings.Index(result.PromptText, "Critical constraints")
	format := strings.Index(result.PromptText, "Return only valid JSON")

	require.True(t, role >= 0 && profileIdx >= 0 && constraints >= 0 && format >= 0)
	assert.Less(t, role, profileIdx)
	assert.Less(t, profileIdx, constraints)
	assert.Less(t, constraints, format)
}

func TestBuildIncludesExemplarsWithProvenance(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{hits: []vectorindex.SearchHit{
		{Chunk: vectorindex.Chunk{ID: "chunk-1", SourceIEPID: "iep-99", Text: "Prior present levels text."}, Similarity: 0.87},
	}})
	result, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)
	assert.Contains(t, result.PromptText, "iep-99")
	assert.Contains(t, result.PromptText, "Prior present levels text.")
	assert.Equal(t, []string{"chunk-1"}, result.ExemplarIDs)
}

func TestBuildToleratesExemplarSearchFailure(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{err: assert.AnError})
	result, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)
	assert.Empty(t, result.ExemplarIDs)
	assert.Contains(t, result.PromptText, "Critical constraints")
}

func TestBuildPromptHashIsStableForSameContent(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{})
	r1, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)
	r2, err := b.Build(context.Background(), samplePromptContext())
	require.NoError(t, err)
	assert.Equal(t, r1.PromptHash, r2.PromptHash)
	assert.NotEmpty(t, r1.PromptHash)
}

func TestBuildFailsWithoutStudent(t *testing.T) {
	b := newTestBuilder(t, &fakeSearcher{})
	pc := samplePromptContext()
	pc.Student = nil
	_, err := b.Build(context.Background(), pc)
	assert.Error(t, err)
}
