package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/response"
)

type stagedService interface {
	Create(ctx context.Context, req dto.CreateStagedRequest) (*models.StagedErratum, error)
	Update(ctx context.Context, id string, req dto.UpdateStagedRequest) (*models.StagedErratum, error)
	Submit(ctx context.Context, id string) (*models.StagedErratum, error)
	Get(ctx context.Context, id string) (*models.StagedErratum, error)
	Reject(ctx context.Context, id string) error
}

// StagedHandler exposes report entry endpoints. Create, update and submit
// are public (reporters have no accounts); get and reject are RPC screening
// operations.
type StagedHandler struct {
	service stagedService
}

// NewStagedHandler builds a new handler.
func NewStagedHandler(service stagedService) *StagedHandler {
	return &StagedHandler{service: service}
}

// Create godoc
// @Summary Open a new errata report entry
// @Tags Staged
// @Accept json
// @Produce json
// @Param payload body dto.CreateStagedRequest true "Report entry payload"
// @Success 201 {object} response.Envelope
// @Router /staged [post]
func (h *StagedHandler) Create(c *gin.Context) {
	var req dto.CreateStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report entry payload"))
		return
	}
	staged, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staged)
}

// Update godoc
// @Summary Update an incomplete report entry
// @Tags Staged
// @Accept json
// @Produce json
// @Param id path string true "Report entry ID"
// @Param payload body dto.UpdateStagedRequest true "Report entry patch"
// @Success 200 {object} response.Envelope
// @Router /staged/{id} [patch]
func (h *StagedHandler) Update(c *gin.Context) {
	var req dto.UpdateStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report entry payload"))
		return
	}
	staged, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staged, nil)
}

// Submit godoc
// @Summary Submit a report entry for screening
// @Tags Staged
// @Produce json
// @Param id path string true "Report entry ID"
// @Success 200 {object} response.Envelope
// @Router /staged/{id}/submit [post]
func (h *StagedHandler) Submit(c *gin.Context) {
	staged, err := h.service.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staged, nil)
}

// Get godoc
// @Summary Get a report entry for screening
// @Tags Staged
// @Produce json
// @Param id path string true "Report entry ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staged/{id} [get]
func (h *StagedHandler) Get(c *gin.Context) {
	staged, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staged, nil)
}

// Reject godoc
// @Summary Reject a report entry at screening
// @Tags Staged
// @Produce json
// @Param id path string true "Report entry ID"
// @Success 204
// @Security BearerAuth
// @Router /staged/{id} [delete]
func (h *StagedHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
