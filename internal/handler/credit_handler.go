package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/service"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/response"
)

// CreditHandler exposes the credit ledger read endpoints.
type CreditHandler struct {
	credits *service.CreditService
}

// NewCreditHandler constructs CreditHandler.
func NewCreditHandler(credits *service.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

// List godoc
// @Summary List a student's credit grants
// @Tags Credits
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/credits [get]
func (h *CreditHandler) List(c *gin.Context) {
	grants, err := h.credits.ListGrants(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grants, nil)
}

// Totals godoc
// @Summary Credit totals grouped by type
// @Tags Credits
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/credits/totals [get]
func (h *CreditHandler) Totals(c *gin.Context) {
	totals, err := h.credits.Totals(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}
