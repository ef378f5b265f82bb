package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/response"
)

type rfcService interface {
	Upsert(ctx context.Context, req dto.UpsertRfcMetadataRequest) (*models.RfcMetadata, error)
	Get(ctx context.Context, rfcNumber int) (*models.RfcMetadata, error)
}

// RfcHandler exposes RFC metadata endpoints. The upsert is fed by the
// external datatracker sync job.
type RfcHandler struct {
	service rfcService
}

// NewRfcHandler builds a new handler.
func NewRfcHandler(service rfcService) *RfcHandler {
	return &RfcHandler{service: service}
}

// Get godoc
// @Summary Get metadata for one RFC
// @Tags RFCs
// @Produce json
// @Param number path int true "RFC number"
// @Success 200 {object} response.Envelope
// @Router /rfcs/{number} [get]
func (h *RfcHandler) Get(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rfc number must be an integer"))
		return
	}
	meta, err := h.service.Get(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meta, nil)
}

// Upsert godoc
// @Summary Insert or replace metadata for one RFC
// @Tags RFCs
// @Accept json
// @Produce json
// @Param number path int true "RFC number"
// @Param payload body dto.UpsertRfcMetadataRequest true "RFC metadata"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rfcs/{number} [put]
func (h *RfcHandler) Upsert(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rfc number must be an integer"))
		return
	}
	var req dto.UpsertRfcMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rfc metadata payload"))
		return
	}
	if req.RFCNumber == 0 {
		req.RFCNumber = number
	}
	if req.RFCNumber != number {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rfc number mismatch between path and body"))
		return
	}
	meta, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meta, nil)
}
