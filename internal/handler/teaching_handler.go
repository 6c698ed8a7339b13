package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstli/attendance-gateway/internal/service"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
	"github.com/sstli/attendance-gateway/pkg/response"
)

// TeachingHandler exposes the teaching-data form and the course report.
type TeachingHandler struct {
	service *service.TeachingService
}

// NewTeachingHandler creates a new handler.
func NewTeachingHandler(svc *service.TeachingService) *TeachingHandler {
	return &TeachingHandler{service: svc}
}

// Trainers lists selectable trainers for the session branch.
func (h *TeachingHandler) Trainers(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	trainers, err := h.service.Trainers(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainers)
}

// Submit stores one teaching-data entry.
func (h *TeachingHandler) Submit(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TeachingFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teaching payload"))
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), req, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Report returns the teaching tree with summary statistics.
func (h *TeachingHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
