package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/service"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/response"
)

// ReportHandler serves PDF report downloads.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Roster godoc
// @Summary Download the enrolled roster as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Offering ID"
// @Success 200 {file} binary
// @Router /offerings/{id}/reports/roster [get]
func (h *ReportHandler) Roster(c *gin.Context) {
	doc, filename, err := h.reports.RosterPDF(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// Attendance godoc
// @Summary Download the attendance log as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Offering ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /offerings/{id}/reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	doc, filename, err := h.reports.AttendancePDF(c.Request.Context(), actorFromContext(c),
		c.Param("id"), parseDateQuery(c.Query("from")), parseDateQuery(c.Query("to")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", doc)
}
