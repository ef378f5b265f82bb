package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type corpusStoreStub struct {
	errata []models.Erratum
	calls  int
}

func (s *corpusStoreStub) ListAll(ctx context.Context) ([]models.Erratum, error) {
	s.calls++
	return s.errata, nil
}

type corpusCacheStub struct {
	values map[string][]byte
}

func newCorpusCacheStub() *corpusCacheStub {
	return &corpusCacheStub{values: make(map[string][]byte)}
}

func (c *corpusCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *corpusCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *corpusCacheStub) Invalidate(ctx context.Context, key string) {
	delete(c.values, key)
}

type storageStub struct {
	saved map[string][]byte
}

func newStorageStub() *storageStub {
	return &storageStub{saved: make(map[string][]byte)}
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	s.saved[filename] = data
	return "/data/" + filename, nil
}

type signerStub struct{}

func (signerStub) Generate(snapshotID, relPath string) (string, time.Time, error) {
	return "tok:" + relPath, time.Now().Add(time.Hour), nil
}

func (signerStub) Parse(token string, allowExpired bool) (string, string, time.Time, error) {
	if !strings.HasPrefix(token, "tok:") {
		return "", "", time.Time{}, appErrors.ErrForbidden
	}
	return "snap", strings.TrimPrefix(token, "tok:"), time.Now().Add(time.Hour), nil
}

func exportErratum() models.Erratum {
	erratumType := models.TypeTechnical
	verifierName := "Verifier"
	verifierEmail := "verifier@ietf.org"
	submitted := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
	verified := time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC)
	return models.Erratum{
		ID:             7141,
		RFCNumber:      9000,
		Status:         models.StatusHeld,
		Type:           &erratumType,
		Section:        "99",
		OrigText:       "teh packet",
		CorrectedText:  "the packet",
		SubmitterName:  "Jane Reporter",
		SubmitterEmail: "jane@example.com",
		SubmittedAt:    &submitted,
		VerifierName:   &verifierName,
		VerifierEmail:  &verifierEmail,
		VerifiedAt:     &verified,
		UpdatedAt:      verified,
	}
}

func TestCorpusRowLegacyShape(t *testing.T) {
	erratum := exportErratum()
	row := corpusRow(&erratum)

	assert.Equal(t, "7141", row.ErrataID)
	assert.Equal(t, "RFC9000", row.DocID)
	assert.Equal(t, "Held for Document Update", row.StatusCode)
	assert.Equal(t, "Technical", row.TypeCode)
	assert.Equal(t, "", row.Section)
	assert.Equal(t, "2024-03-09", row.SubmitDate)
	assert.Equal(t, "2024-04-01 08:30:00", row.UpdateDate)
	assert.Equal(t, "Verifier", row.VerifierName)
	// verifier_id is deprecated upstream and is always published empty.
	assert.Equal(t, "", row.VerifierID)
}

func TestCorpusRowSectionPrefix(t *testing.T) {
	erratum := exportErratum()
	erratum.Section = "994.1"
	assert.Equal(t, "4.1", corpusRow(&erratum).Section)

	erratum.Section = "4.1"
	assert.Equal(t, "4.1", corpusRow(&erratum).Section)
}

func TestCorpusJSONCachesResult(t *testing.T) {
	store := &corpusStoreStub{errata: []models.Erratum{exportErratum()}}
	svc := NewExportService(store, newCorpusCacheStub(), nil, nil, time.Minute, nil)

	rows, err := svc.CorpusJSON(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.CorpusJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestInvalidateCorpusForcesRebuild(t *testing.T) {
	store := &corpusStoreStub{errata: []models.Erratum{exportErratum()}}
	svc := NewExportService(store, newCorpusCacheStub(), nil, nil, time.Minute, nil)

	_, err := svc.CorpusJSON(context.Background())
	require.NoError(t, err)
	svc.InvalidateCorpus(context.Background())
	_, err = svc.CorpusJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestWriteSnapshotArtifacts(t *testing.T) {
	store := &corpusStoreStub{errata: []models.Erratum{exportErratum()}}
	files := newStorageStub()
	svc := NewExportService(store, newCorpusCacheStub(), files, signerStub{}, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	artifacts, err := svc.WriteSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "20240501T120000Z/errata.json", artifacts[0].Path)
	assert.Equal(t, "20240501T120000Z/errata.csv", artifacts[1].Path)
	assert.Equal(t, "20240501T120000Z/errata.pdf", artifacts[2].Path)
	for _, artifact := range artifacts {
		assert.Equal(t, "tok:"+artifact.Path, artifact.Token)
		assert.NotEmpty(t, files.saved[artifact.Path])
	}

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(files.saved[artifacts[0].Path], &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "RFC9000", rows[0]["doc-id"])
	assert.Equal(t, "", rows[0]["verifier_id"])
}

func TestOpenSnapshotRejectsBadToken(t *testing.T) {
	svc := NewExportService(&corpusStoreStub{}, newCorpusCacheStub(), newStorageStub(), signerStub{}, time.Minute, nil)

	relPath, err := svc.OpenSnapshot("tok:20240501T120000Z/errata.csv")
	require.NoError(t, err)
	assert.Equal(t, "20240501T120000Z/errata.csv", relPath)

	_, err = svc.OpenSnapshot("forged")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
