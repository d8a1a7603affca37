// Package v1 implements the HTTP handlers for every /v1 route (assessments,
// IEPs, templates, student reindex and traces),
// grounded on the teacher's handler/v1 package shape (one handler struct
// per resource group, thin binding + orchestrator call + WriteResponse).
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

// errorEnvelope is the {"error":{"code","message","details"}} shape §6
// specifies for every non-2xx response.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteResponse mirrors the teacher's core.WriteResponse call sites
// (errorx.WrapC/WithCode errors translated to one JSON envelope shape):
// on err != nil it writes the registered Coder's HTTP status and message;
// on success it writes 200 with data as the body, or 204 with no body when
// data is nil.
func WriteResponse(c *gin.Context, err error, data any) {
	if err != nil {
		coder := errorx.FromError(err)
		status := coder.HTTPStatus()
		if kind := errorx.KindOf(err); kind != "" {
			status = errorx.HTTPStatusForKind(kind)
		}
		env := errorEnvelope{}
		env.Error.Code = coder.Code()
		env.Error.Message = err.Error()
		env.Error.Details = coder.String()
		c.JSON(status, env)
		return
	}
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, data)
}
