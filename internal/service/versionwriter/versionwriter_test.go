package versionwriter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
	"github.com/brightpath-edu/iepforge/internal/service/versionwriter"
	"github.com/brightpath-edu/iepforge/internal/store/inmemory"
)

func testTemplate() *template.Template {
	return &template.Template{
		ID:      "tmpl-1",
		Name:    "SLD Grade 5",
		Version: 1,
		Sections: []template.SectionSpec{
			{SectionKey: "present_levels", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
			{SectionKey: "goals", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
		},
	}
}

func testContent() map[string]map[string]any {
	return map[string]map[string]any{
		"present_levels": {"summary": "reads below grade level"},
		"goals":          {"summary": "improve fluency"},
	}
}

func TestWriteAssignsFirstVersionWithNoParent(t *testing.T) {
	st := inmemory.NewStore()
	w, err := (&versionwriter.Config{IEPs: st.IEPs}).Complete().New()
	require.NoError(t, err)

	row, err := w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1",
		Template:  testTemplate(),
		Content:   testContent(),
		CreatedBy: "teacher-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, row.Version)
	assert.Empty(t, row.ParentVersionID)
	assert.Equal(t, iep.StatusDraft, row.Status)
}

func TestWriteAssignsMonotonicVersionsChainingParent(t *testing.T) {
	st := inmemory.NewStore()
	w, err := (&versionwriter.Config{IEPs: st.IEPs}).Complete().New()
	require.NoError(t, err)

	first, err := w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1", Template: testTemplate(), Content: testContent(), CreatedBy: "teacher-1",
	})
	require.NoError(t, err)

	second, err := w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1", Template: testTemplate(), Content: testContent(), CreatedBy: "teacher-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	assert.Equal(t, first.ID, second.ParentVersionID)
}

func TestWriteRejectsContentKeysNotMatchingTemplate(t *testing.T) {
	st := inmemory.NewStore()
	w, err := (&versionwriter.Config{IEPs: st.IEPs}).Complete().New()
	require.NoError(t, err)

	bad := map[string]map[string]any{"only_one_section": {"summary": "x"}}
	_, err = w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1", Template: testTemplate(), Content: bad, CreatedBy: "teacher-1",
	})
	require.Error(t, err)
}

// TestConcurrentWritesForSameStudentGetDistinctVersionsSharedParent exercises
// §8 invariant 7: two concurrent generate_iep calls for the same student
// produce adjacent versions with an identical parent.
func TestConcurrentWritesForSameStudentGetDistinctVersionsSharedParent(t *testing.T) {
	st := inmemory.NewStore()
	w, err := (&versionwriter.Config{IEPs: st.IEPs}).Complete().New()
	require.NoError(t, err)

	seed, err := w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1", Template: testTemplate(), Content: testContent(), CreatedBy: "teacher-1",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*iep.IEP, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row, err := w.Write(context.Background(), versionwriter.Draft{
				StudentID: "student-1", Template: testTemplate(), Content: testContent(), CreatedBy: "teacher-1",
			})
			require.NoError(t, err)
			results[i] = row
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, results[0].Version, results[1].Version)
	assert.Equal(t, seed.ID, results[0].ParentVersionID)
	assert.Equal(t, seed.ID, results[1].ParentVersionID)
	versions := map[int]bool{results[0].Version: true, results[1].Version: true}
	assert.True(t, versions[2] && versions[3])
}

func TestWriteIndexesSectionsAsynchronouslyWithoutBlockingOnFailure(t *testing.T) {
	st := inmemory.NewStore()
	idx := &failingIndexer{}
	w, err := (&versionwriter.Config{IEPs: st.IEPs, Index: idx}).Complete().New()
	require.NoError(t, err)

	start := time.Now()
	_, err = w.Write(context.Background(), versionwriter.Draft{
		StudentID: "student-1", Template: testTemplate(), Content: testContent(), CreatedBy: "teacher-1",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "indexing must not block the write")
}

type failingIndexer struct{}

func (f *failingIndexer) IndexDocument(ctx context.Context, text string, meta vectorindex.Chunk) (int, error) {
	return 0, assert.AnError
}
