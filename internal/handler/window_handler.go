package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-reg-api/internal/models"
	"github.com/noah-isme/univ-reg-api/pkg/response"
)

type eligibilityQueryService interface {
	IsRegistrationOpen(ctx context.Context, termID string) (bool, *models.EligibilityWindow, error)
}

// WindowHandler exposes the registration-window status endpoint.
type WindowHandler struct {
	eligibility eligibilityQueryService
}

// NewWindowHandler constructs WindowHandler.
func NewWindowHandler(eligibility eligibilityQueryService) *WindowHandler {
	return &WindowHandler{eligibility: eligibility}
}

// RegistrationWindow godoc
// @Summary Report whether registration is open for a term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/registration-window [get]
func (h *WindowHandler) RegistrationWindow(c *gin.Context) {
	open, window, err := h.eligibility.IsRegistrationOpen(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"open": open, "window": window}, nil)
}
