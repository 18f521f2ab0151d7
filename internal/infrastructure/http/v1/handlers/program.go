package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"admissions/internal/domain/program"
	"admissions/internal/infrastructure/http/v1/dto"
)

// ProgramLister lists the public programme catalogue.
type ProgramLister interface {
	ListVisible(ctx context.Context) ([]*program.Program, error)
}

// ProgramHandler serves the programme catalogue.
type ProgramHandler struct {
	*BaseHandler
	service ProgramLister
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(base *BaseHandler, service ProgramLister) *ProgramHandler {
	return &ProgramHandler{BaseHandler: base, service: service}
}

// List handles GET /programs
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.service.ListVisible(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPrograms(programs))
}
