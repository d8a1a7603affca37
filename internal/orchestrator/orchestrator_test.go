package orchestrator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/principal"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/internal/service/extractor"
	"github.com/brightpath-edu/iepforge/internal/service/flattener"
	"github.com/brightpath-edu/iepforge/internal/service/generator"
	"github.com/brightpath-edu/iepforge/internal/service/promptbuilder"
	"github.com/brightpath-edu/iepforge/internal/service/versionwriter"
	"github.com/brightpath-edu/iepforge/internal/store/inmemory"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

func gptrFloat(v float64) *float64 { return &v }

// fakeExtractor stands in for the Document Extractor: one score record,
// high confidence, no manual review.
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, doc *assessment.Document) (*extractor.Result, error) {
	return &extractor.Result{
		ScoreSet: assessment.ScoreSet{
			DocumentID: doc.ID,
			Records: []assessment.ScoreRecord{
				{TestName: "WISC-V", SubtestName: "Verbal Comprehension", StandardScore: gptrFloat(95), Classification: assessment.Average, Confidence: 0.9},
			},
		},
		OverallConfidence:    0.9,
		ManualReviewRequired: false,
	}, nil
}

// fakeQuantifier stands in for the Quantification Engine.
type fakeQuantifier struct{}

func (fakeQuantifier) Quantify(studentID string, set assessment.ScoreSet, grade string) (*profile.Profile, error) {
	return &profile.Profile{
		StudentID:       studentID,
		Domains:         map[profile.Domain]profile.DomainScore{},
		ConfidenceFloor: 0.9,
	}, nil
}

// fakeBuilder stands in for the RAG Prompt Builder.
type fakeBuilder struct{}

func (fakeBuilder) Build(_ context.Context, pc *promptbuilder.Context) (*promptbuilder.Result, error) {
	return &promptbuilder.Result{SectionKey: pc.Section.SectionKey, PromptText: "prompt for " + pc.Section.SectionKey, PromptHash: "hash"}, nil
}

// scriptedGenerator returns a fixed Section per section key, or a
// persistent GenerationFailed error for keys listed in fail.
type scriptedGenerator struct {
	fail map[string]bool
}

func (g scriptedGenerator) GenerateSection(_ context.Context, _ string, section template.SectionSpec) (*generator.Section, error) {
	if g.fail[section.SectionKey] {
		return nil, errorx.NewKind(errorx.KindGenerationFailed, errorx.WithCode(1, "section %s: persistent schema mismatch", section.SectionKey))
	}
	return &generator.Section{Content: map[string]any{"summary": "generated " + section.SectionKey}, Outcome: "ok"}, nil
}

func testStudent() *student.Student {
	return &student.Student{ID: "student-1", FirstName: "Ana", LastName: "Ortiz", Grade: 5, DisabilityCodes: []string{"SLD"}}
}

func testTemplate() *template.Template {
	return &template.Template{
		ID:                 "tmpl-1",
		Name:               "SLD Grade 5",
		DisabilityCategory: "SLD",
		Version:            1,
		Active:             true,
		Sections: []template.SectionSpec{
			{SectionKey: "present_levels", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
			{SectionKey: "goals", RequiredFields: []template.FieldSpec{{Path: "summary", Type: "string"}}},
		},
	}
}

func newOrchestrator(t *testing.T, gen orchestrator.Generator) *orchestrator.Orchestrator {
	t.Helper()
	st := inmemory.NewStore()
	require.NoError(t, st.Students.Put(context.Background(), testStudent()))
	require.NoError(t, st.Templates.Create(context.Background(), testTemplate()))

	writer, err := (&versionwriter.Config{IEPs: st.IEPs}).Complete().New()
	require.NoError(t, err)
	flat := (&flattener.Config{}).Complete().New()

	o, err := (&orchestrator.Config{
		Store:         st,
		ExtractorSvc:  fakeExtractor{},
		QuantifierSvc: fakeQuantifier{},
		Builder:       fakeBuilder{},
		GeneratorSvc:  gen,
		FlattenerSvc:  flat,
		Writer:        writer,
	}).Complete().New()
	require.NoError(t, err)

	return o
}

// TestHappyPathUploadExtractGenerateApprove exercises scenario A end to
// end: a teacher uploads an assessment, the pipeline extracts and
// quantifies it, generates a draft IEP, and a coordinator approves it.
func TestHappyPathUploadExtractGenerateApprove(t *testing.T) {
	o := newOrchestrator(t, scriptedGenerator{})
	ctx := context.Background()
	teacher := principal.Principal{ID: "teacher-1", Role: principal.RoleTeacher}
	coordinator := principal.Principal{ID: "coord-1", Role: principal.RoleCoordinator}

	doc, err := o.UploadAssessment(ctx, orchestrator.UploadAssessmentInput{
		StudentID: "student-1", FileName: "wisc.pdf", StorageURI: "s3://bucket/wisc.pdf", AssessmentType: assessment.WISCV,
	})
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusPending, doc.ProcessingStatus)

	prof, err := o.ExtractAndQuantify(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "student-1", prof.StudentID)

	row, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1",
		AssessmentDocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, iep.StatusDraft, row.Status)
	assert.Equal(t, 1, row.Version)
	assert.Len(t, row.Content, 2)

	got, err := o.GetIEP(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, row.ID, got.ID)

	approved, err := o.ApproveIEP(ctx, coordinator, row.ID)
	require.NoError(t, err)
	assert.Equal(t, iep.StatusActive, approved.Status)
	assert.Equal(t, "coord-1", approved.ApprovedBy)
}

// TestGenerateIEPRejectsTeacherApproval exercises the §6 role policy: a
// teacher may create drafts but may not approve them.
func TestGenerateIEPRejectsTeacherApproval(t *testing.T) {
	o := newOrchestrator(t, scriptedGenerator{})
	ctx := context.Background()
	teacher := principal.Principal{ID: "teacher-1", Role: principal.RoleTeacher}

	doc, err := o.UploadAssessment(ctx, orchestrator.UploadAssessmentInput{
		StudentID: "student-1", StorageURI: "s3://bucket/wisc.pdf", AssessmentType: assessment.WISCV,
	})
	require.NoError(t, err)
	_, err = o.ExtractAndQuantify(ctx, doc.ID)
	require.NoError(t, err)
	row, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)

	_, err = o.ApproveIEP(ctx, teacher, row.ID)
	require.Error(t, err)
}

// TestGenerateIEPPersistentSchemaViolationFailsWithoutWritingIEP exercises
// scenario D: one section's generation fails persistently (schema mismatch
// exhausts its corrective retry), the whole call surfaces GenerationFailed,
// and no IEP row is created for the student.
func TestGenerateIEPPersistentSchemaViolationFailsWithoutWritingIEP(t *testing.T) {
	o := newOrchestrator(t, scriptedGenerator{fail: map[string]bool{"goals": true}})
	ctx := context.Background()
	teacher := principal.Principal{ID: "teacher-1", Role: principal.RoleTeacher}

	doc, err := o.UploadAssessment(ctx, orchestrator.UploadAssessmentInput{
		StudentID: "student-1", StorageURI: "s3://bucket/wisc.pdf", AssessmentType: assessment.WISCV,
	})
	require.NoError(t, err)
	_, err = o.ExtractAndQuantify(ctx, doc.ID)
	require.NoError(t, err)

	_, err = o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
	})
	require.Error(t, err)
	assert.Equal(t, errorx.KindGenerationFailed, errorx.KindOf(err))

	list, err := o.ListIEPs(ctx, "student-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// TestConcurrentGenerateIEPForSameStudentProducesDistinctVersionsSharedParent
// exercises scenario E at the orchestrator level: two concurrent
// generate_iep calls for the same student must not race each other into
// colliding versions.
func TestConcurrentGenerateIEPForSameStudentProducesDistinctVersionsSharedParent(t *testing.T) {
	o := newOrchestrator(t, scriptedGenerator{})
	ctx := context.Background()
	teacher := principal.Principal{ID: "teacher-1", Role: principal.RoleTeacher}

	doc, err := o.UploadAssessment(ctx, orchestrator.UploadAssessmentInput{
		StudentID: "student-1", StorageURI: "s3://bucket/wisc.pdf", AssessmentType: assessment.WISCV,
	})
	require.NoError(t, err)
	_, err = o.ExtractAndQuantify(ctx, doc.ID)
	require.NoError(t, err)

	seed, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*iep.IEP, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
				Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
			})
			require.NoError(t, err)
			results[i] = row
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, results[0].Version, results[1].Version)
	assert.Equal(t, seed.ID, results[0].ParentVersionID)
	assert.Equal(t, seed.ID, results[1].ParentVersionID)
}

// TestApproveIEPArchivesPreviouslyActiveVersion exercises the
// supersession rule: approving a new draft archives the IEP it replaces.
func TestApproveIEPArchivesPreviouslyActiveVersion(t *testing.T) {
	o := newOrchestrator(t, scriptedGenerator{})
	ctx := context.Background()
	teacher := principal.Principal{ID: "teacher-1", Role: principal.RoleTeacher}
	coordinator := principal.Principal{ID: "coord-1", Role: principal.RoleCoordinator}

	doc, err := o.UploadAssessment(ctx, orchestrator.UploadAssessmentInput{
		StudentID: "student-1", StorageURI: "s3://bucket/wisc.pdf", AssessmentType: assessment.WISCV,
	})
	require.NoError(t, err)
	_, err = o.ExtractAndQuantify(ctx, doc.ID)
	require.NoError(t, err)

	first, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)
	_, err = o.ApproveIEP(ctx, coordinator, first.ID)
	require.NoError(t, err)

	second, err := o.GenerateIEP(ctx, orchestrator.GenerateIEPInput{
		Principal: teacher, StudentID: "student-1", TemplateID: "tmpl-1", AssessmentDocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)
	_, err = o.ApproveIEP(ctx, coordinator, second.ID)
	require.NoError(t, err)

	archived, err := o.GetIEP(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, iep.StatusArchived, archived.Status)
}
