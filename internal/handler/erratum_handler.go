package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/internal/service"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/response"
)

type erratumService interface {
	ConvertStaged(ctx context.Context, claims *models.JWTClaims, stagedID string, req dto.ConvertStagedRequest) (*models.Erratum, error)
	Classify(ctx context.Context, claims *models.JWTClaims, erratumID int64, req dto.ClassifyRequest) (*models.Erratum, error)
	Queue(ctx context.Context, claims *models.JWTClaims) ([]models.Erratum, error)
	Search(ctx context.Context, query dto.SearchQuery) (*service.SearchResult, error)
	Get(ctx context.Context, id int64) (*service.ErratumDetail, error)
}

// ErratumHandler exposes the public search surfaces and the authenticated
// screening and classification operations.
type ErratumHandler struct {
	service erratumService
}

// NewErratumHandler builds a new handler.
func NewErratumHandler(service erratumService) *ErratumHandler {
	return &ErratumHandler{service: service}
}

// Search godoc
// @Summary Search errata
// @Tags Errata
// @Produce json
// @Param rfc_number query int false "RFC number"
// @Param errata_id query int false "Erratum ID"
// @Param status query string false "Status slug, any, held or verified_reported"
// @Param errata_type query string false "Type slug"
// @Param area query string false "Area acronym"
// @Param wg_acronym query string false "Working group acronym"
// @Param submitter_name query string false "Submitter name substring"
// @Param stream query string false "Stream"
// @Param date query string false "Submitted date prefix YYYY[-MM[-DD]]"
// @Success 200 {object} response.Envelope
// @Router /errata [get]
func (h *ErratumHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search query"))
		return
	}
	result, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Errata, &result.Pagination)
}

// Get godoc
// @Summary Get one erratum with metadata and history
// @Tags Errata
// @Produce json
// @Param id path int true "Erratum ID"
// @Success 200 {object} response.Envelope
// @Router /errata/{id} [get]
func (h *ErratumHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "erratum id must be an integer"))
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Queue godoc
// @Summary List reported errata within the caller's jurisdiction
// @Tags Errata
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /errata/queue [get]
func (h *ErratumHandler) Queue(c *gin.Context) {
	errata, err := h.service.Queue(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, errata, nil)
}

// Convert godoc
// @Summary Convert a submitted report entry into an erratum
// @Tags Errata
// @Accept json
// @Produce json
// @Param id path string true "Report entry ID"
// @Param payload body dto.ConvertStagedRequest true "Screening decision"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /staged/{id}/convert [post]
func (h *ErratumHandler) Convert(c *gin.Context) {
	var req dto.ConvertStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid screening payload"))
		return
	}
	erratum, err := h.service.ConvertStaged(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, erratum)
}

// Classify godoc
// @Summary Classify a reported erratum
// @Tags Errata
// @Accept json
// @Produce json
// @Param id path int true "Erratum ID"
// @Param payload body dto.ClassifyRequest true "Classification decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /errata/{id}/classify [post]
func (h *ErratumHandler) Classify(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "erratum id must be an integer"))
		return
	}
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classification payload"))
		return
	}
	erratum, err := h.service.Classify(c.Request.Context(), claimsFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, erratum, nil)
}
