package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"admissions/internal/domain/candidate"
	"admissions/internal/infrastructure/http/v1/dto"
)

// ApplicationLister lists the applicants of a programme.
type ApplicationLister interface {
	ApplicationsByProgram(ctx context.Context, departmentCode, programCode string) (*candidate.ProgramApplications, error)
}

// ApplicationHandler serves application listings to department staff.
type ApplicationHandler struct {
	*BaseHandler
	service ApplicationLister
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(base *BaseHandler, service ApplicationLister) *ApplicationHandler {
	return &ApplicationHandler{BaseHandler: base, service: service}
}

// ByProgram handles GET /applications/:departmentCode/:programCode
func (h *ApplicationHandler) ByProgram(c *gin.Context) {
	result, err := h.service.ApplicationsByProgram(c.Request.Context(), c.Param("departmentCode"), c.Param("programCode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProgramApplications(result))
}
