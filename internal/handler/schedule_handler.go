package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/service"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/response"
)

// ScheduleHandler exposes the composed day-view schedule.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Day godoc
// @Summary Composed day schedule for a student
// @Description Merges weekly offerings with one-off appointments onto the period grid for a single date.
// @Tags Schedule
// @Produce json
// @Param studentId path string true "Student ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/schedule [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}
	schedule, err := h.schedules.ScheduleFor(c.Request.Context(), c.Param("studentId"), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
