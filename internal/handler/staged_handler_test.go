package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type stagedServiceMock struct {
	staged *models.StagedErratum
	err    error
}

func (m *stagedServiceMock) Create(ctx context.Context, req dto.CreateStagedRequest) (*models.StagedErratum, error) {
	return m.staged, m.err
}

func (m *stagedServiceMock) Update(ctx context.Context, id string, req dto.UpdateStagedRequest) (*models.StagedErratum, error) {
	return m.staged, m.err
}

func (m *stagedServiceMock) Submit(ctx context.Context, id string) (*models.StagedErratum, error) {
	return m.staged, m.err
}

func (m *stagedServiceMock) Get(ctx context.Context, id string) (*models.StagedErratum, error) {
	return m.staged, m.err
}

func (m *stagedServiceMock) Reject(ctx context.Context, id string) error {
	return m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestStagedHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &stagedServiceMock{
		staged: &models.StagedErratum{ID: "entry-1", EntryStatus: models.EntryIncomplete, RFCNumber: 9000},
	}
	handler := NewStagedHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateStagedRequest{RFCNumber: 9000, Section: "3.1"})
	c, w := newGinContext(http.MethodPost, "/staged", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "entry-1")
}

func TestStagedHandlerCreateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStagedHandler(&stagedServiceMock{})

	c, w := newGinContext(http.MethodPost, "/staged", []byte(`{"rfc_number":"nine thousand"}`))
	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStagedHandlerUpdateSubmittedEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &stagedServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already submitted")}
	handler := NewStagedHandler(mockSvc)

	payload, _ := json.Marshal(dto.UpdateStagedRequest{})
	c, w := newGinContext(http.MethodPatch, "/staged/entry-1", payload)
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestStagedHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &stagedServiceMock{
		staged: &models.StagedErratum{ID: "entry-1", EntryStatus: models.EntrySubmitted, RFCNumber: 9000},
	}
	handler := NewStagedHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/staged/entry-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "submitted")
}

func TestStagedHandlerReject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStagedHandler(&stagedServiceMock{})

	c, w := newGinContext(http.MethodDelete, "/staged/entry-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}

	handler.Reject(c)
	// The handler sets the status without a body; outside a running engine
	// gin defers the header write, so flush it before inspecting the recorder.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}
