// Package orchestrator wires every pipeline component into the six
// ingress operations (§6): upload_assessment, extract_and_quantify,
// generate_iep, get_iep, list_ieps and approve_iep, plus the
// administrative reset that returns a failed AssessmentDocument to
// pending. It is grounded on the teacher's server.go module-assembly
// order (Config -> Complete -> New, dependencies injected rather than
// looked up) generalized to this pipeline's
// Extractor -> Quantifier -> (Builder -> Generator)* -> Flattener -> Writer
// sequence, with a GenerationTrace emitted at every stage (§3, §7).
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/principal"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/domain/trace"
	"github.com/brightpath-edu/iepforge/internal/options"
	"github.com/brightpath-edu/iepforge/internal/service/extractor"
	"github.com/brightpath-edu/iepforge/internal/service/flattener"
	"github.com/brightpath-edu/iepforge/internal/service/generator"
	"github.com/brightpath-edu/iepforge/internal/service/promptbuilder"
	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
	"github.com/brightpath-edu/iepforge/internal/service/versionwriter"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

const (
	errValidation        = 130001
	errNotFound          = 130002
	errIllegalTransition = 130003
	errDeadlineExceeded  = 130004
	errForbidden         = 130005
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errValidation, 422, "request failed validation", ""))
	errorx.MustRegister(errorx.NewCoder(errNotFound, 404, "entity not found", ""))
	errorx.MustRegister(errorx.NewCoder(errIllegalTransition, 409, "illegal status transition", ""))
	errorx.MustRegister(errorx.NewCoder(errDeadlineExceeded, 504, "pipeline deadline exceeded", ""))
	errorx.MustRegister(errorx.NewCoder(errForbidden, 403, "principal is not permitted to perform this action", ""))
}

// Extractor is the subset of extractor.Extractor the orchestrator depends
// on, narrowed so tests can fake it.
type Extractor interface {
	Extract(ctx context.Context, doc *assessment.Document) (*extractor.Result, error)
}

// Quantifier is the subset of quantifier.Quantifier the orchestrator
// depends on.
type Quantifier interface {
	Quantify(studentID string, set assessment.ScoreSet, grade string) (*profile.Profile, error)
}

// PromptBuilder is the subset of promptbuilder.Builder the orchestrator
// depends on.
type PromptBuilder interface {
	Build(ctx context.Context, pc *promptbuilder.Context) (*promptbuilder.Result, error)
}

// Generator is the subset of generator.Generator the orchestrator depends
// on.
type Generator interface {
	GenerateSection(ctx context.Context, prompt string, section template.SectionSpec) (*generator.Section, error)
}

// Flattener is the subset of flattener.Flattener the orchestrator depends
// on.
type Flattener interface {
	FlattenContent(content map[string]map[string]any, tmpl template.Template) (map[string]map[string]any, flattener.Stats)
}

// Writer is the subset of versionwriter.Writer the orchestrator depends
// on.
type Writer interface {
	Write(ctx context.Context, d versionwriter.Draft) (*iep.IEP, error)
}

// TemplateService is the subset of *templatestore.Store the orchestrator
// depends on for publish_template/list_templates (§C.2, §D).
type TemplateService interface {
	Publish(ctx context.Context, t *template.Template, supersedes string) (*template.Template, error)
	List(ctx context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error)
}

// Indexer is the subset of *vectorindex.Index the orchestrator depends on
// for reindex_student_history (§C.3, §D).
type Indexer interface {
	DeleteBySourceIEP(ctx context.Context, sourceIEPID string) error
	IndexDocument(ctx context.Context, text string, meta vectorindex.Chunk) (int, error)
}

// Config bundles every dependency the orchestrator needs to run the full
// pipeline plus its tunables (§5, §6).
type Config struct {
	Store         *store.Store
	ExtractorSvc  Extractor
	QuantifierSvc Quantifier
	Builder       PromptBuilder
	GeneratorSvc  Generator
	FlattenerSvc  Flattener
	Writer        Writer
	Templates     TemplateService // optional; nil disables publish_template/list_templates
	Index         Indexer         // optional; nil disables reindex_student_history
	Pipeline      *options.PipelineOptions
	LLM           *options.LLMOptions
}

type completedConfig struct{ *Config }

// Complete fills pipeline/LLM defaults when the caller omitted them.
func (c *Config) Complete() *completedConfig {
	if c.Pipeline == nil {
		c.Pipeline = options.NewPipelineOptions()
	}
	if c.LLM == nil {
		c.LLM = options.NewLLMOptions()
	}
	return &completedConfig{c}
}

// New validates dependencies and builds an Orchestrator.
func (c *completedConfig) New() (*Orchestrator, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("orchestrator: Store is required")
	}
	if c.ExtractorSvc == nil {
		return nil, fmt.Errorf("orchestrator: ExtractorSvc is required")
	}
	if c.QuantifierSvc == nil {
		return nil, fmt.Errorf("orchestrator: QuantifierSvc is required")
	}
	if c.Builder == nil {
		return nil, fmt.Errorf("orchestrator: Builder is required")
	}
	if c.GeneratorSvc == nil {
		return nil, fmt.Errorf("orchestrator: GeneratorSvc is required")
	}
	if c.FlattenerSvc == nil {
		return nil, fmt.Errorf("orchestrator: FlattenerSvc is required")
	}
	if c.Writer == nil {
		return nil, fmt.Errorf("orchestrator: Writer is required")
	}
	maxFanOut := c.LLM.MaxSectionParallelism
	if maxFanOut < 1 {
		maxFanOut = 1
	}
	return &Orchestrator{
		store:      c.Store,
		extract:    c.ExtractorSvc,
		quantify:   c.QuantifierSvc,
		build:      c.Builder,
		generate:   c.GeneratorSvc,
		flatten:    c.FlattenerSvc,
		write:      c.Writer,
		templates:  c.Templates,
		index:      c.Index,
		deadline:   time.Duration(c.Pipeline.DeadlineSeconds) * time.Second,
		floorDraft: c.Pipeline.ConfidenceFloorForDraftOnly,
		maxFanOut:  maxFanOut,
	}, nil
}

// Orchestrator runs the six ingress operations of §6 end to end, plus the
// supplemented operations of §C/§D.
type Orchestrator struct {
	store     *store.Store
	extract   Extractor
	quantify  Quantifier
	build     PromptBuilder
	generate  Generator
	flatten   Flattener
	write     Writer
	templates TemplateService
	index     Indexer

	deadline   time.Duration
	floorDraft float64
	maxFanOut  int
}

// UploadAssessmentInput is upload_assessment's request envelope (§6).
type UploadAssessmentInput struct {
	StudentID      string
	FileName       string
	StorageURI     string
	AssessmentType assessment.Type
	AssessorName   string
	AssessmentDate time.Time
}

// UploadAssessment registers a new AssessmentDocument in status=pending
// (§6 upload_assessment). Any authenticated role may upload.
func (o *Orchestrator) UploadAssessment(ctx context.Context, in UploadAssessmentInput) (*assessment.Document, error) {
	if in.StudentID == "" || in.StorageURI == "" {
		return nil, errorx.NewKind(errorx.KindValidation,
			errorx.WithCode(errValidation, "student_id and storage_uri are required"))
	}
	if !in.AssessmentType.Valid() {
		return nil, errorx.NewKind(errorx.KindValidation,
			errorx.WithCode(errValidation, "assessment_type %q is not recognized", in.AssessmentType))
	}

	doc := &assessment.Document{
		ID:               uuid.NewString(),
		StudentID:        in.StudentID,
		OriginalFileName: in.FileName,
		StorageURI:       in.StorageURI,
		AssessmentType:   in.AssessmentType,
		AssessorName:     in.AssessorName,
		AssessmentDate:   in.AssessmentDate,
		ProcessingStatus: assessment.StatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := o.store.AssessmentDocuments.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("orchestrator: create assessment document: %w", err)
	}
	return doc, nil
}

// ExtractAndQuantify runs §4.1 then §4.2 against one already-uploaded
// document, transitioning pending -> extracting -> extracted -> quantified
// (or -> failed on a terminal extraction error), and persists the
// resulting ScoreSet and QuantifiedProfile (§6 extract_and_quantify).
func (o *Orchestrator) ExtractAndQuantify(ctx context.Context, documentID string) (*profile.Profile, error) {
	correlationID := uuid.NewString()
	ctx = logger.WithCorrelationID(ctx, correlationID)

	doc, err := o.store.AssessmentDocuments.Get(ctx, documentID)
	if err != nil {
		return nil, notFoundOrWrap(err, "assessment document %q", documentID)
	}
	if !assessment.CanTransition(doc.ProcessingStatus, assessment.StatusExtracting) {
		return nil, errorx.NewKind(errorx.KindIllegalTransition,
			errorx.WithCode(errIllegalTransition, "document %q is %s, cannot extract", documentID, doc.ProcessingStatus))
	}

	st, err := o.store.Students.Get(ctx, doc.StudentID)
	if err != nil {
		return nil, notFoundOrWrap(err, "student %q", doc.StudentID)
	}

	doc.ProcessingStatus = assessment.StatusExtracting
	doc.UpdatedAt = time.Now()
	if err := o.store.AssessmentDocuments.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("orchestrator: mark document %q extracting: %w", documentID, err)
	}

	extractStart := time.Now()
	result, err := o.extract.Extract(ctx, doc)
	o.appendTrace(ctx, correlationID, trace.StageExtract, extractStart, err)
	if err != nil {
		doc.ProcessingStatus = assessment.StatusFailed
		doc.ExtractionNotes = err.Error()
		doc.UpdatedAt = time.Now()
		_ = o.store.AssessmentDocuments.Update(ctx, doc)
		return nil, err
	}

	doc.ProcessingStatus = assessment.StatusExtracted
	doc.OverallConfidence = result.OverallConfidence
	doc.ManualReviewRequired = result.ManualReviewRequired
	doc.UpdatedAt = time.Now()
	if err := o.store.AssessmentDocuments.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("orchestrator: mark document %q extracted: %w", documentID, err)
	}
	if err := o.store.ScoreSets.Put(ctx, &result.ScoreSet); err != nil {
		return nil, fmt.Errorf("orchestrator: persist score set for document %q: %w", documentID, err)
	}

	quantifyStart := time.Now()
	prof, err := o.quantify.Quantify(doc.StudentID, result.ScoreSet, strconv.Itoa(st.Grade))
	o.appendTrace(ctx, correlationID, trace.StageQuantify, quantifyStart, err)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: quantify document %q: %w", documentID, err)
	}
	prof.ID = uuid.NewString()
	prof.CreatedAt = time.Now()
	if err := o.store.Profiles.Put(ctx, prof); err != nil {
		return nil, fmt.Errorf("orchestrator: persist profile for document %q: %w", documentID, err)
	}

	doc.ProcessingStatus = assessment.StatusQuantified
	doc.UpdatedAt = time.Now()
	if err := o.store.AssessmentDocuments.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("orchestrator: mark document %q quantified: %w", documentID, err)
	}

	return prof, nil
}

// ResetFailedAssessment performs the administrative pending reset named in
// §3's state machine notes (failed -> pending, admin only).
func (o *Orchestrator) ResetFailedAssessment(ctx context.Context, p principal.Principal, documentID string) (*assessment.Document, error) {
	if !p.Allows(principal.ActionArchiveOrReset) {
		return nil, forbidden(p, principal.ActionArchiveOrReset)
	}
	doc, err := o.store.AssessmentDocuments.Get(ctx, documentID)
	if err != nil {
		return nil, notFoundOrWrap(err, "assessment document %q", documentID)
	}
	if !assessment.CanTransition(doc.ProcessingStatus, assessment.StatusPending) {
		return nil, errorx.NewKind(errorx.KindIllegalTransition,
			errorx.WithCode(errIllegalTransition, "document %q is %s, cannot reset to pending", documentID, doc.ProcessingStatus))
	}
	doc.ProcessingStatus = assessment.StatusPending
	doc.ExtractionNotes = ""
	doc.UpdatedAt = time.Now()
	if err := o.store.AssessmentDocuments.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("orchestrator: reset document %q: %w", documentID, err)
	}
	return doc, nil
}

// PublishTemplateInput is publish_template's request envelope (§C.2, §D).
type PublishTemplateInput struct {
	Principal          principal.Principal
	Name               string
	DisabilityCategory string
	GradeBand          string
	Sections           []template.SectionSpec
	Supersedes         string // optional; id of the template version this one replaces
}

// GenerateIEPInput is generate_iep's request envelope (§6).
type GenerateIEPInput struct {
	Principal             principal.Principal
	StudentID             string
	TemplateID            string
	AcademicYear          string
	AssessmentDocumentIDs []string
	MeetingDate           time.Time
	EffectiveDate         time.Time
	ReviewDate            time.Time
	PlanningNotes         string
}

// GenerateIEP runs the full Extractor-output-consuming half of the
// pipeline: concatenate every named assessment document's already-computed
// ScoreSet into one combined set, quantify it once, then for every
// template section build a RAG-grounded prompt, generate content, flatten
// it, and persist a new draft IEP version (§4.2-§4.7, §5, §6
// generate_iep). The whole call is bounded by pipeline.deadline-seconds.
func (o *Orchestrator) GenerateIEP(ctx context.Context, in GenerateIEPInput) (*iep.IEP, error) {
	if !in.Principal.Allows(principal.ActionCreateDraft) {
		return nil, forbidden(in.Principal, principal.ActionCreateDraft)
	}
	if in.StudentID == "" || in.TemplateID == "" || len(in.AssessmentDocumentIDs) == 0 {
		return nil, errorx.NewKind(errorx.KindValidation,
			errorx.WithCode(errValidation, "student_id, template_id and at least one assessment_document_id are required"))
	}

	correlationID := uuid.NewString()
	ctx = logger.WithCorrelationID(ctx, correlationID)
	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	st, err := o.store.Students.Get(ctx, in.StudentID)
	if err != nil {
		return nil, notFoundOrWrap(err, "student %q", in.StudentID)
	}
	tmpl, err := o.store.Templates.Get(ctx, in.TemplateID)
	if err != nil {
		return nil, notFoundOrWrap(err, "template %q", in.TemplateID)
	}

	prof, err := o.quantifyCombined(ctx, correlationID, st, in.AssessmentDocumentIDs)
	if err != nil {
		return nil, deadlineOr(ctx, in.StudentID, in.TemplateID, err)
	}

	content, err := o.generateAllSections(ctx, correlationID, st, prof, tmpl, in.PlanningNotes)
	if err != nil {
		return nil, deadlineOr(ctx, in.StudentID, in.TemplateID, err)
	}

	flattenStart := time.Now()
	flattened, _ := o.flatten.FlattenContent(content, *tmpl)
	o.appendTrace(ctx, correlationID, trace.StageFlatten, flattenStart, nil)

	writeStart := time.Now()
	row, err := o.write.Write(ctx, versionwriter.Draft{
		StudentID:          in.StudentID,
		Template:           tmpl,
		AcademicYear:       in.AcademicYear,
		Content:            flattened,
		MeetingDate:        in.MeetingDate,
		EffectiveDate:      in.EffectiveDate,
		ReviewDate:         in.ReviewDate,
		CreatedBy:          in.Principal.ID,
		DisabilityCategory: st.PrimaryDisabilityCategory(),
	})
	o.appendTrace(ctx, correlationID, trace.StageVersionWrite, writeStart, err)
	if err != nil {
		return nil, deadlineOr(ctx, in.StudentID, in.TemplateID, err)
	}

	return row, nil
}

// deadlineOr remaps err to DeadlineExceeded when the pipeline's
// wall-clock budget has already expired (§5), otherwise passes it through.
func deadlineOr(ctx context.Context, studentID, templateID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errorx.NewKind(errorx.KindDeadlineExceeded,
			errorx.WrapC(ctxErr, errDeadlineExceeded, "student=%s template=%s", studentID, templateID))
	}
	return err
}

// quantifyCombined fetches every listed document's ScoreSet, concatenates
// their records into one combined set and quantifies it once (§4.2:
// "concatenates results into a quantified profile").
func (o *Orchestrator) quantifyCombined(ctx context.Context, correlationID string, st *student.Student, documentIDs []string) (*profile.Profile, error) {
	var combined assessment.ScoreSet
	for _, docID := range documentIDs {
		set, err := o.store.ScoreSets.Get(ctx, docID)
		if err != nil {
			return nil, notFoundOrWrap(err, "score set for document %q", docID)
		}
		combined.Records = append(combined.Records, set.Records...)
		combined.DocumentID = docID
	}

	quantifyStart := time.Now()
	prof, err := o.quantify.Quantify(st.ID, combined, strconv.Itoa(st.Grade))
	o.appendTrace(ctx, correlationID, trace.StageQuantify, quantifyStart, err)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: quantify combined score sets for student %q: %w", st.ID, err)
	}
	prof.ID = uuid.NewString()
	prof.AssessmentDocumentIDs = documentIDs
	prof.CreatedAt = time.Now()
	if err := o.store.Profiles.Put(ctx, prof); err != nil {
		return nil, fmt.Errorf("orchestrator: persist combined profile for student %q: %w", st.ID, err)
	}
	return prof, nil
}

// generateAllSections builds and generates every template section, bounded
// to maxFanOut concurrent sections (§6: llm.max-section-parallelism,
// default 1 = sequential). Sections are keyed by section_key in the
// returned map regardless of completion order, so assembly is order-safe
// even when fan-out is >1.
func (o *Orchestrator) generateAllSections(ctx context.Context, correlationID string, st *student.Student, prof *profile.Profile, tmpl *template.Template, planningNotes string) (map[string]map[string]any, error) {
	content := make(map[string]map[string]any, len(tmpl.Sections))
	var mu sync.Mutex
	var firstErr error

	sem := make(chan struct{}, o.maxFanOut)
	var wg sync.WaitGroup

	for _, section := range tmpl.Sections {
		section := section
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			sectionContent, err := o.generateOneSection(ctx, correlationID, st, prof, section, planningNotes)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			content[section.SectionKey] = sectionContent
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return content, nil
}

// generateOneSection builds the prompt and generates one section's content
// (§4.5 then §4.6).
func (o *Orchestrator) generateOneSection(ctx context.Context, correlationID string, st *student.Student, prof *profile.Profile, section template.SectionSpec, planningNotes string) (map[string]any, error) {
	buildStart := time.Now()
	promptResult, err := o.build.Build(ctx, &promptbuilder.Context{
		Student:       st,
		Profile:       prof,
		Section:       section,
		PlanningNotes: planningNotes,
		Now:           time.Now(),
	})
	o.appendTrace(ctx, correlationID, trace.StagePromptBuild, buildStart, err)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build prompt for section %s: %w", section.SectionKey, err)
	}

	genStart := time.Now()
	sec, err := o.generate.GenerateSection(ctx, promptResult.PromptText, section)
	o.appendTrace(ctx, correlationID, trace.StageGenerate, genStart, err)
	if err != nil {
		return nil, err
	}
	return sec.Content, nil
}

// GetIEP returns one IEP by id (§6 get_iep).
func (o *Orchestrator) GetIEP(ctx context.Context, id string) (*iep.IEP, error) {
	row, err := o.store.IEPs.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrWrap(err, "iep %q", id)
	}
	return row, nil
}

// ListIEPs returns every version for a student (§6 list_ieps).
func (o *Orchestrator) ListIEPs(ctx context.Context, studentID string) ([]*iep.IEP, error) {
	return o.store.IEPs.ListByStudent(ctx, studentID)
}

// ApproveIEP transitions a draft to active (§6 approve_iep), archiving the
// previously-active IEP for the same student as the supersession step:
// the active view is derived (§9 redesign flag), but superseding one still
// requires an explicit archive transition on the row it replaces.
func (o *Orchestrator) ApproveIEP(ctx context.Context, p principal.Principal, id string) (*iep.IEP, error) {
	if !p.Allows(principal.ActionApprove) {
		return nil, forbidden(p, principal.ActionApprove)
	}
	row, err := o.store.IEPs.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrWrap(err, "iep %q", id)
	}
	if !iep.CanTransition(row.Status, iep.StatusActive) {
		return nil, errorx.NewKind(errorx.KindIllegalTransition,
			errorx.WithCode(errIllegalTransition, "iep %q is %s, cannot approve", id, row.Status))
	}

	if prevActive, err := o.store.IEPs.ActiveForStudent(ctx, row.StudentID); err == nil && prevActive != nil && prevActive.ID != row.ID {
		if iep.CanTransition(prevActive.Status, iep.StatusArchived) {
			prevActive.Status = iep.StatusArchived
			if err := o.store.IEPs.Update(ctx, prevActive); err != nil {
				return nil, fmt.Errorf("orchestrator: archive superseded iep %q: %w", prevActive.ID, err)
			}
		}
	}

	now := time.Now()
	row.Status = iep.StatusActive
	row.ApprovedAt = &now
	row.ApprovedBy = p.ID
	if err := o.store.IEPs.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("orchestrator: approve iep %q: %w", id, err)
	}
	return row, nil
}

// PublishTemplate publishes a new IEPTemplate version, optionally
// superseding a prior one (§C.2, §D publish_template). Restricted to
// instructional leadership, not the classroom teacher filing one student's
// IEP.
func (o *Orchestrator) PublishTemplate(ctx context.Context, in PublishTemplateInput) (*template.Template, error) {
	if !in.Principal.Allows(principal.ActionManageTemplates) {
		return nil, forbidden(in.Principal, principal.ActionManageTemplates)
	}
	if o.templates == nil {
		return nil, fmt.Errorf("orchestrator: template store is not configured")
	}
	t := &template.Template{
		Name:               in.Name,
		DisabilityCategory: in.DisabilityCategory,
		GradeBand:          in.GradeBand,
		Sections:           in.Sections,
	}
	published, err := o.templates.Publish(ctx, t, in.Supersedes)
	if err != nil {
		return nil, err
	}
	return published, nil
}

// ListTemplates returns templates filtered by disability category, grade
// band and active status (§C.2, §D list_templates). Unlike
// PublishTemplate, listing is not role-gated — a teacher must be able to
// browse templates to pick one for generate_iep.
func (o *Orchestrator) ListTemplates(ctx context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error) {
	if o.templates == nil {
		return nil, fmt.Errorf("orchestrator: template store is not configured")
	}
	return o.templates.List(ctx, disabilityCategory, gradeBand, activeOnly)
}

// ReindexStudentHistory re-chunks and re-embeds every approved (active or
// archived) IEP for a student into the Vector Index, useful after a
// Template or embedding-model change (§C.3, §D reindex_student_history).
// Draft IEPs are skipped: they are not yet retrieval-worthy prior history
// (§4.3). It returns the total number of chunks written.
func (o *Orchestrator) ReindexStudentHistory(ctx context.Context, p principal.Principal, studentID string) (int, error) {
	if !p.Allows(principal.ActionArchiveOrReset) {
		return 0, forbidden(p, principal.ActionArchiveOrReset)
	}
	if o.index == nil {
		return 0, fmt.Errorf("orchestrator: vector index is not configured")
	}
	st, err := o.store.Students.Get(ctx, studentID)
	if err != nil {
		return 0, notFoundOrWrap(err, "student %q", studentID)
	}
	rows, err := o.store.IEPs.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, notFoundOrWrap(err, "ieps for student %q", studentID)
	}

	total := 0
	for _, row := range rows {
		if row.Status == iep.StatusDraft {
			continue
		}
		if err := o.index.DeleteBySourceIEP(ctx, row.ID); err != nil {
			return total, fmt.Errorf("orchestrator: clear existing chunks for iep %q: %w", row.ID, err)
		}
		for sectionKey, sectionContent := range row.Content {
			text, err := json.Marshal(sectionContent)
			if err != nil {
				return total, fmt.Errorf("orchestrator: marshal section %q of iep %q: %w", sectionKey, row.ID, err)
			}
			n, err := o.index.IndexDocument(ctx, string(text), vectorindex.Chunk{
				StudentID:          row.StudentID,
				SourceIEPID:        row.ID,
				SectionKey:         sectionKey,
				DisabilityCategory: st.PrimaryDisabilityCategory(),
				Kind:               "prior_iep",
			})
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

// ListTraces returns every GenerationTrace row for one correlation_id
// (§3, §C.4, §D list_traces), the only read path §6 never gave
// GenerationTrace despite it being retained and append-only.
func (o *Orchestrator) ListTraces(ctx context.Context, p principal.Principal, correlationID string) ([]*trace.Trace, error) {
	if !p.Allows(principal.ActionViewAudit) {
		return nil, forbidden(p, principal.ActionViewAudit)
	}
	rows, err := o.store.Traces.ListByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list traces for correlation %q: %w", correlationID, err)
	}
	if len(rows) == 0 {
		return nil, errorx.NewKind(errorx.KindNotFound,
			errorx.WithCode(errNotFound, "no traces for correlation %q", correlationID))
	}
	return rows, nil
}

func (o *Orchestrator) appendTrace(ctx context.Context, correlationID string, stage trace.Stage, start time.Time, err error) {
	outcome := trace.OutcomeOK
	errorKind := ""
	if err != nil {
		outcome = trace.OutcomeFailed
		errorKind = string(errorx.KindOf(err))
	}
	t := &trace.Trace{
		ID:            uuid.NewString(),
		CorrelationID: correlationID,
		Stage:         stage,
		DurationMS:    time.Since(start).Milliseconds(),
		Outcome:       outcome,
		ErrorKind:     errorKind,
		CreatedAt:     time.Now(),
	}
	if appendErr := o.store.Traces.Append(ctx, t); appendErr != nil {
		logger.Warn("[Orchestrator] append trace stage=%s correlation=%s failed: %v", stage, correlationID, appendErr)
	}
}

func notFoundOrWrap(err error, format string, args ...any) error {
	if err == store.ErrNotFound {
		return errorx.NewKind(errorx.KindNotFound,
			errorx.WithCode(errNotFound, format, args...))
	}
	wrapped := fmt.Sprintf(format, args...)
	return fmt.Errorf("orchestrator: %s: %w", wrapped, err)
}

func forbidden(p principal.Principal, action principal.Action) error {
	return errorx.WithCode(errForbidden, "principal=%s role=%s may not perform %s", p.ID, p.Role, action)
}
