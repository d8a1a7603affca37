package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/principal"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

// IEPOrchestrator is the subset of *orchestrator.Orchestrator the IEP
// handlers depend on, narrowed so tests can fake it.
type IEPOrchestrator interface {
	GenerateIEP(ctx context.Context, in orchestrator.GenerateIEPInput) (*iep.IEP, error)
	GetIEP(ctx context.Context, id string) (*iep.IEP, error)
	ListIEPs(ctx context.Context, studentID string) ([]*iep.IEP, error)
	ApproveIEP(ctx context.Context, p principal.Principal, id string) (*iep.IEP, error)
}

// IEPHandler serves POST /v1/ieps, GET /v1/ieps/:id, GET
// /v1/students/:id/ieps and POST /v1/ieps/:id/approve (§6 generate_iep,
// get_iep, list_ieps and approve_iep).
type IEPHandler struct {
	orch IEPOrchestrator
}

// NewIEPHandler builds an IEPHandler.
func NewIEPHandler(orch IEPOrchestrator) *IEPHandler {
	return &IEPHandler{orch: orch}
}

type generateIEPRequest struct {
	StudentID             string   `json:"student_id" binding:"required"`
	TemplateID            string   `json:"template_id" binding:"required"`
	AcademicYear          string   `json:"academic_year" binding:"required"`
	AssessmentDocumentIDs []string `json:"assessment_document_ids" binding:"required"`
	MeetingDate           string   `json:"meeting_date"`
	EffectiveDate         string   `json:"effective_date"`
	ReviewDate            string   `json:"review_date"`
	PlanningNotes         string   `json:"planning_notes"`
}

// Generate handles POST /v1/ieps, the RAG-grounded generate_iep operation
// (§4.2-§4.7, §6). A teacher, coordinator or admin may create a draft.
func (h *IEPHandler) Generate(c *gin.Context) {
	var req generateIEPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "bind generate iep request"), nil)
		return
	}

	meetingDate, err := parseOptionalRFC3339(req.MeetingDate)
	if err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "parse meeting_date %q", req.MeetingDate), nil)
		return
	}
	effectiveDate, err := parseOptionalRFC3339(req.EffectiveDate)
	if err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "parse effective_date %q", req.EffectiveDate), nil)
		return
	}
	reviewDate, err := parseOptionalRFC3339(req.ReviewDate)
	if err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "parse review_date %q", req.ReviewDate), nil)
		return
	}

	p := middleware.FromContext(c)
	row, err := h.orch.GenerateIEP(c.Request.Context(), orchestrator.GenerateIEPInput{
		Principal:             p,
		StudentID:             req.StudentID,
		TemplateID:            req.TemplateID,
		AcademicYear:          req.AcademicYear,
		AssessmentDocumentIDs: req.AssessmentDocumentIDs,
		MeetingDate:           meetingDate,
		EffectiveDate:         effectiveDate,
		ReviewDate:            reviewDate,
		PlanningNotes:         req.PlanningNotes,
	})
	WriteResponse(c, err, row)
}

// Get handles GET /v1/ieps/:id.
func (h *IEPHandler) Get(c *gin.Context) {
	row, err := h.orch.GetIEP(c.Request.Context(), c.Param("id"))
	WriteResponse(c, err, row)
}

// List handles GET /v1/students/:id/ieps.
func (h *IEPHandler) List(c *gin.Context) {
	rows, err := h.orch.ListIEPs(c.Request.Context(), c.Param("id"))
	WriteResponse(c, err, rows)
}

// Approve handles POST /v1/ieps/:id/approve, activating a draft and
// archiving the student's previously-active version (§6 approve_iep).
// Only a coordinator or admin may approve.
func (h *IEPHandler) Approve(c *gin.Context) {
	p := middleware.FromContext(c)
	row, err := h.orch.ApproveIEP(c.Request.Context(), p, c.Param("id"))
	WriteResponse(c, err, row)
}

func parseOptionalRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
