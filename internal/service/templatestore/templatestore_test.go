package templatestore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/templatestore"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/internal/store/inmemory"
)

func newTestStore(t *testing.T) (*templatestore.Store, store.Templates) {
	t.Helper()
	backing := inmemory.NewStore()
	ts, err := (&templatestore.Config{Store: backing.Templates}).Complete().New()
	require.NoError(t, err)
	return ts, backing.Templates
}

func sampleTemplate() *template.Template {
	return &template.Template{
		Name:               "SLD-Elementary",
		DisabilityCategory: "SLD",
		GradeBand:          "K-2",
		Sections: []template.SectionSpec{
			{SectionKey: "present_levels", HumanTitle: "Present Levels", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
		},
	}
}

func TestPublishAssignsVersionOne(t *testing.T) {
	ts, _ := newTestStore(t)
	published, err := ts.Publish(context.Background(), sampleTemplate(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, published.Version)
	assert.True(t, published.Active)
}

func TestPublishSupersedesDeactivatesOld(t *testing.T) {
	ts, repo := newTestStore(t)
	ctx := context.Background()

	first, err := ts.Publish(ctx, sampleTemplate(), "")
	require.NoError(t, err)

	second, err := ts.Publish(ctx, sampleTemplate(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	oldVersion, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, oldVersion.Active)
}

func TestPublishRejectsInvalidTemplate(t *testing.T) {
	ts, _ := newTestStore(t)
	invalid := &template.Template{Name: "No Sections"}
	_, err := ts.Publish(context.Background(), invalid, "")
	require.Error(t, err)
}

func TestListFiltersByActiveOnly(t *testing.T) {
	ts, _ := newTestStore(t)
	ctx := context.Background()
	first, err := ts.Publish(ctx, sampleTemplate(), "")
	require.NoError(t, err)
	_, err = ts.Publish(ctx, sampleTemplate(), first.ID)
	require.NoError(t, err)

	active, err := ts.List(ctx, "SLD", "K-2", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 2, active[0].Version)
}
