package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/principal"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

const (
	errBind = 100001
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errBind, http.StatusBadRequest, "request body binding failed", ""))
}

// AssessmentOrchestrator is the subset of *orchestrator.Orchestrator the
// assessment handlers depend on, narrowed so tests can fake it.
type AssessmentOrchestrator interface {
	UploadAssessment(ctx context.Context, in orchestrator.UploadAssessmentInput) (*assessment.Document, error)
	ExtractAndQuantify(ctx context.Context, documentID string) (*profile.Profile, error)
	ResetFailedAssessment(ctx context.Context, p principal.Principal, documentID string) (*assessment.Document, error)
}

// AssessmentHandler serves POST /v1/assessments, POST
// /v1/assessments/:id/extract and POST /v1/assessments/:id/reset (§6
// upload_assessment, extract_and_quantify, and the administrative reset).
type AssessmentHandler struct {
	orch AssessmentOrchestrator
}

// NewAssessmentHandler builds an AssessmentHandler.
func NewAssessmentHandler(orch AssessmentOrchestrator) *AssessmentHandler {
	return &AssessmentHandler{orch: orch}
}

type uploadAssessmentRequest struct {
	StudentID      string `json:"student_id" binding:"required"`
	FileName       string `json:"file_name"`
	StorageURI     string `json:"storage_uri" binding:"required"`
	AssessmentType string `json:"assessment_type" binding:"required"`
	AssessorName   string `json:"assessor_name"`
	AssessmentDate string `json:"assessment_date"`
}

// Upload handles POST /v1/assessments.
func (h *AssessmentHandler) Upload(c *gin.Context) {
	var req uploadAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "bind upload assessment request"), nil)
		return
	}

	var assessedAt time.Time
	if req.AssessmentDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.AssessmentDate)
		if err != nil {
			WriteResponse(c, errorx.WrapC(err, errBind, "parse assessment_date %q", req.AssessmentDate), nil)
			return
		}
		assessedAt = parsed
	}

	doc, err := h.orch.UploadAssessment(c.Request.Context(), orchestrator.UploadAssessmentInput{
		StudentID:      req.StudentID,
		FileName:       req.FileName,
		StorageURI:     req.StorageURI,
		AssessmentType: assessment.Type(req.AssessmentType),
		AssessorName:   req.AssessorName,
		AssessmentDate: assessedAt,
	})
	WriteResponse(c, err, doc)
}

// ExtractAndQuantify handles POST /v1/assessments/:id/extract.
func (h *AssessmentHandler) ExtractAndQuantify(c *gin.Context) {
	documentID := c.Param("id")
	prof, err := h.orch.ExtractAndQuantify(c.Request.Context(), documentID)
	WriteResponse(c, err, prof)
}

// Reset handles POST /v1/assessments/:id/reset, the administrative
// failed->pending transition (§3 state machine notes, admin-only).
func (h *AssessmentHandler) Reset(c *gin.Context) {
	p := middleware.FromContext(c)
	documentID := c.Param("id")
	doc, err := h.orch.ResetFailedAssessment(c.Request.Context(), p, documentID)
	WriteResponse(c, err, doc)
}
