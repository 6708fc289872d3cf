package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-reg-api/internal/models"
	"github.com/noah-isme/univ-reg-api/internal/service"
	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
	"github.com/noah-isme/univ-reg-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.RegistrationConfirmation, error)
	Cancel(ctx context.Context, req service.CancelRequest) error
	Transfer(ctx context.Context, req service.TransferRequest) error
	ListActive(ctx context.Context, studentID, termID string) ([]models.RegistrationDetail, error)
	History(ctx context.Context, studentID, termID string) ([]models.RegistrationHistoryEntry, error)
}

// RegistrationHandler exposes registration endpoints.
type RegistrationHandler struct {
	registrations registrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations registrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Create godoc
// @Summary Register a student into a class section
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Register payload"
// @Success 201 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	confirmation, err := h.registrations.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, confirmation)
}

// Cancel godoc
// @Summary Cancel a student's registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CancelRequest true "Cancel payload"
// @Success 204
// @Router /registrations/cancel [post]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	var req service.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registrations.Cancel(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Transfer godoc
// @Summary Transfer a registration to another section
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.TransferRequest true "Transfer payload"
// @Success 204
// @Router /registrations/transfer [post]
func (h *RegistrationHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registrations.Transfer(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByStudent godoc
// @Summary List a student's active registrations
// @Tags Registrations
// @Produce json
// @Param id path string true "Student ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [get]
func (h *RegistrationHandler) ListByStudent(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}
	registrations, err := h.registrations.ListActive(c.Request.Context(), c.Param("id"), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// HistoryByStudent godoc
// @Summary List a student's registration history
// @Tags Registrations
// @Produce json
// @Param id path string true "Student ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *RegistrationHandler) HistoryByStudent(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}
	entries, err := h.registrations.History(c.Request.Context(), c.Param("id"), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
