package vectorindex_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
)

// fakeEmbedder returns a deterministic, trivially-comparable vector derived
// from the text's length and leading byte, so similarity ranking is
// predictable without a real embedding backend.
type fakeEmbedder struct{}

func (fakeEmbedder) ID() string    { return "fake" }
func (fakeEmbedder) Model() string { return "fake-embed-1" }

func (fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	out, err := fakeEmbedder{}.EmbedBatch(context.Background(), []string{text})
	return out[0], err
}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var lead float32
		if len(t) > 0 {
			lead = float32(t[0])
		}
		out[i] = []float32{float32(len(t)), lead, float32(strings.Count(t, " "))}
	}
	return out, nil
}

func newTestIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	idx, err := (&vectorindex.Config{
		StorePath: ":memory:",
		Embedder:  fakeEmbedder{},
		TopK:      2,
	}).Complete().New()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearchFiltersByStudent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.IndexDocument(ctx, "present levels of academic performance for student one",
		vectorindex.Chunk{StudentID: "s1", SourceIEPID: "iep-1", SectionKey: "present_levels", Kind: "prior_iep"})
	require.NoError(t, err)
	_, err = idx.IndexDocument(ctx, "present levels of academic performance for student two",
		vectorindex.Chunk{StudentID: "s2", SourceIEPID: "iep-2", SectionKey: "present_levels", Kind: "prior_iep"})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "present levels query", vectorindex.Filter{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].Chunk.StudentID)
}

func TestDeleteBySourceIEPRemovesChunks(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.IndexDocument(ctx, "some exemplar text",
		vectorindex.Chunk{StudentID: "s1", SourceIEPID: "iep-1", Kind: "exemplar"})
	require.NoError(t, err)
	require.NoError(t, idx.DeleteBySourceIEP(ctx, "iep-1"))

	hits, err := idx.Search(ctx, "some exemplar text", vectorindex.Filter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRespectsTopK(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := idx.IndexDocument(ctx, strings.Repeat("x", i+1),
			vectorindex.Chunk{StudentID: "s1", Kind: "planning_note"})
		require.NoError(t, err)
	}

	hits, err := idx.Search(ctx, "x", vectorindex.Filter{StudentID: "s1"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 2)
}
