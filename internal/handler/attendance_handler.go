package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstli/attendance-gateway/internal/service"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
	"github.com/sstli/attendance-gateway/pkg/response"
)

// AttendanceHandler exposes the capture flow: student lookup and submission.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Student looks up a student by national ID.
func (h *AttendanceHandler) Student(c *gin.Context) {
	nationalID := c.Param("nationalID")
	student, err := h.service.LookupStudent(c.Request.Context(), nationalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Submit records one confirmed attendance event for the current session.
func (h *AttendanceHandler) Submit(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.service.Submit(c.Request.Context(), req, session)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}
