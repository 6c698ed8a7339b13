package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstli/attendance-gateway/internal/service"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
	"github.com/sstli/attendance-gateway/pkg/response"
)

// ReportHandler serves the daily and monthly attendance views.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Daily builds the per-day view. The date comes from the query string; an
// optional search term narrows the rows and a scoped=true flag restricts the
// view to the session branch roster.
func (h *ReportHandler) Daily(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.DailyReportRequest{
		Date:   c.Query("date"),
		Search: c.Query("search"),
	}
	if c.Query("scoped") == "true" {
		if session.BranchForWork == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "branch information not found on session"))
			return
		}
		req.Branch = session.BranchForWork
	}

	view, err := h.service.LoadDaily(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Monthly builds the per-month view over the session branch roster.
func (h *ReportHandler) Monthly(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if session.BranchForWork == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "branch information not found on session"))
		return
	}

	req := service.MonthlyReportRequest{
		Month:  c.Query("month"),
		Branch: session.BranchForWork,
	}

	view, err := h.service.LoadMonthly(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// WhatsAppLink builds a messaging deep-link for a student phone number.
func (h *ReportHandler) WhatsAppLink(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "phone is required"))
		return
	}
	link := service.WhatsAppLink(phone, c.Query("message"))
	response.JSON(c, http.StatusOK, gin.H{"link": link})
}
