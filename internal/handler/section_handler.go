package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-reg-api/internal/service"
	"github.com/noah-isme/univ-reg-api/pkg/response"
)

type sectionQueryService interface {
	Get(ctx context.Context, sectionID string) (*service.SectionSnapshot, error)
}

// SectionHandler exposes class-section read endpoints.
type SectionHandler struct {
	sections sectionQueryService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections sectionQueryService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// Get godoc
// @Summary Get a class section with its weekly slots
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	snapshot, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Slots godoc
// @Summary List a class section's weekly meeting slots
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/slots [get]
func (h *SectionHandler) Slots(c *gin.Context) {
	snapshot, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot.Slots, nil)
}
