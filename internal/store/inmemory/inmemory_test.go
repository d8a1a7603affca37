package inmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/internal/store/inmemory"
)

func tmpl(id, disability, gradeBand string, active bool) *template.Template {
	return &template.Template{
		ID:                 id,
		Name:               id,
		DisabilityCategory: disability,
		GradeBand:          gradeBand,
		Version:            1,
		Active:             active,
		Sections: []template.SectionSpec{
			{SectionKey: "present_levels", HumanTitle: "Present Levels", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
		},
	}
}

func TestIEPVersionBookkeeping(t *testing.T) {
	ctx := context.Background()
	s := inmemory.NewStore()

	v, err := s.IEPs.MaxVersion(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	first := &iep.IEP{ID: "iep-1", StudentID: "student-1", Version: 1, Status: iep.StatusDraft}
	require.NoError(t, s.IEPs.Create(ctx, first))

	v, err = s.IEPs.MaxVersion(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	head, err := s.IEPs.LatestHead(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "iep-1", head.ID)

	active, err := s.IEPs.ActiveForStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Nil(t, active, "a draft IEP is never the derived active view")

	first.Status = iep.StatusActive
	require.NoError(t, s.IEPs.Update(ctx, first))
	active, err = s.IEPs.ActiveForStudent(ctx, "student-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "iep-1", active.ID)
}

func TestAssessmentDocumentNotFound(t *testing.T) {
	s := inmemory.NewStore()
	_, err := s.AssessmentDocuments.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTemplateListFilters(t *testing.T) {
	ctx := context.Background()
	s := inmemory.NewStore()
	require.NoError(t, s.Templates.Create(ctx, tmpl("t1", "SLD", "K-2", true)))
	require.NoError(t, s.Templates.Create(ctx, tmpl("t2", "OHI", "K-2", true)))

	out, err := s.Templates.List(ctx, "SLD", "", false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "t1", out[0].ID)
}
