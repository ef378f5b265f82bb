package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/service"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/response"
	"github.com/ietf-tools/errata-api/pkg/storage"
)

type exportService interface {
	CorpusJSON(ctx context.Context) ([]dto.ErratumJSONRow, error)
	WriteSnapshot(ctx context.Context) ([]service.SnapshotFile, error)
	OpenSnapshot(token string) (string, error)
}

// ExportHandler serves the legacy errata.json corpus and snapshot
// downloads.
type ExportHandler struct {
	service exportService
	storage *storage.LocalStorage
}

// NewExportHandler builds a new handler. storage may be nil when snapshots
// are disabled.
func NewExportHandler(service exportService, store *storage.LocalStorage) *ExportHandler {
	return &ExportHandler{service: service, storage: store}
}

// CorpusJSON godoc
// @Summary Full errata corpus in the legacy errata.json shape
// @Tags Export
// @Produce json
// @Success 200 {array} dto.ErratumJSONRow
// @Router /errata.json [get]
func (h *ExportHandler) CorpusJSON(c *gin.Context) {
	rows, err := h.service.CorpusJSON(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	// Served bare, not enveloped: downstream scrapers expect a JSON array.
	c.JSON(http.StatusOK, rows)
}

// WriteSnapshot godoc
// @Summary Write a corpus snapshot to storage
// @Tags Export
// @Produce json
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /snapshots [post]
func (h *ExportHandler) WriteSnapshot(c *gin.Context) {
	files, err := h.service.WriteSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, files)
}

// Download godoc
// @Summary Download a snapshot artifact via signed token
// @Tags Export
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Router /snapshots/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	relPath, err := h.service.OpenSnapshot(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.storage == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "snapshot storage is not configured"))
		return
	}
	c.File(h.storage.Path(relPath))
}
