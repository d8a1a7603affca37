package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/internal/domain/principal"
	"github.com/brightpath-edu/iepforge/internal/domain/trace"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
)

// AuditOrchestrator is the subset of *orchestrator.Orchestrator the audit
// handlers depend on, narrowed so tests can fake it.
type AuditOrchestrator interface {
	ListTraces(ctx context.Context, p principal.Principal, correlationID string) ([]*trace.Trace, error)
	ReindexStudentHistory(ctx context.Context, p principal.Principal, studentID string) (int, error)
}

// AuditHandler serves GET /v1/traces and POST /v1/students/:id/reindex
// (§C.3, §C.4, §D list_traces, reindex_student_history).
type AuditHandler struct {
	orch AuditOrchestrator
}

// NewAuditHandler builds an AuditHandler.
func NewAuditHandler(orch AuditOrchestrator) *AuditHandler {
	return &AuditHandler{orch: orch}
}

// ListTraces handles GET /v1/traces?correlation_id=.
func (h *AuditHandler) ListTraces(c *gin.Context) {
	p := middleware.FromContext(c)
	rows, err := h.orch.ListTraces(c.Request.Context(), p, c.Query("correlation_id"))
	WriteResponse(c, err, rows)
}

type reindexResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
}

// ReindexStudentHistory handles POST /v1/students/:id/reindex.
func (h *AuditHandler) ReindexStudentHistory(c *gin.Context) {
	p := middleware.FromContext(c)
	studentID := c.Param("id")
	count, err := h.orch.ReindexStudentHistory(c.Request.Context(), p, studentID)
	WriteResponse(c, err, reindexResponse{ChunksIndexed: count})
}
