package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

// TemplateOrchestrator is the subset of *orchestrator.Orchestrator the
// template handlers depend on, narrowed so tests can fake it.
type TemplateOrchestrator interface {
	PublishTemplate(ctx context.Context, in orchestrator.PublishTemplateInput) (*template.Template, error)
	ListTemplates(ctx context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error)
}

// TemplateHandler serves POST /v1/templates and GET /v1/templates (§C.2,
// §D publish_template, list_templates).
type TemplateHandler struct {
	orch TemplateOrchestrator
}

// NewTemplateHandler builds a TemplateHandler.
func NewTemplateHandler(orch TemplateOrchestrator) *TemplateHandler {
	return &TemplateHandler{orch: orch}
}

type publishTemplateRequest struct {
	Name               string                 `json:"name" binding:"required"`
	DisabilityCategory string                 `json:"disability_category" binding:"required"`
	GradeBand          string                 `json:"grade_band"`
	Sections           []template.SectionSpec `json:"sections" binding:"required"`
	Supersedes         string                 `json:"supersedes"`
}

// Publish handles POST /v1/templates.
func (h *TemplateHandler) Publish(c *gin.Context) {
	var req publishTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteResponse(c, errorx.WrapC(err, errBind, "bind publish template request"), nil)
		return
	}

	t, err := h.orch.PublishTemplate(c.Request.Context(), orchestrator.PublishTemplateInput{
		Principal:          middleware.FromContext(c),
		Name:               req.Name,
		DisabilityCategory: req.DisabilityCategory,
		GradeBand:          req.GradeBand,
		Sections:           req.Sections,
		Supersedes:         req.Supersedes,
	})
	WriteResponse(c, err, t)
}

// List handles GET /v1/templates?disability_category=&grade_band=&active_only=.
func (h *TemplateHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	templates, err := h.orch.ListTemplates(c.Request.Context(),
		c.Query("disability_category"), c.Query("grade_band"), activeOnly)
	WriteResponse(c, err, templates)
}
