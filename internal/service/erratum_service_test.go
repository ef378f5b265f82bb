package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/internal/repository"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type fullErratumStoreStub struct {
	erratumStoreStub
	filter      *models.ErratumFilter
	classified  []repository.ClassificationParams
	classifyErr error
}

func (s *fullErratumStoreStub) Search(ctx context.Context, filter models.ErratumFilter) ([]models.Erratum, int, error) {
	s.filter = &filter
	return s.listed, len(s.listed), nil
}

func (s *fullErratumStoreStub) ListAll(ctx context.Context) ([]models.Erratum, error) {
	return s.listed, nil
}

func (s *fullErratumStoreStub) Classify(ctx context.Context, params repository.ClassificationParams) error {
	if s.classifyErr != nil {
		return s.classifyErr
	}
	e, ok := s.errata[params.ID]
	if !ok || e.Status != models.StatusReported {
		return sql.ErrNoRows
	}
	s.classified = append(s.classified, params)
	e.Status = params.Status
	return nil
}

type stagedConverterStub struct {
	staged    map[string]*models.StagedErratum
	converted int64
}

func (s *stagedConverterStub) GetByID(ctx context.Context, id string) (*models.StagedErratum, error) {
	staged, ok := s.staged[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return staged, nil
}

func (s *stagedConverterStub) ConvertToErratum(ctx context.Context, staged *models.StagedErratum, erratumType models.TypeSlug) (*models.Erratum, error) {
	if _, ok := s.staged[staged.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(s.staged, staged.ID)
	s.converted++
	submittedAt := time.Now().UTC()
	return &models.Erratum{
		ID:             s.converted,
		RFCNumber:      staged.RFCNumber,
		Status:         models.StatusReported,
		Type:           &erratumType,
		Section:        staged.Section,
		OrigText:       staged.OrigText,
		CorrectedText:  staged.CorrectedText,
		SubmitterName:  staged.SubmitterName,
		SubmitterEmail: staged.SubmitterEmail,
		SubmittedAt:    &submittedAt,
	}, nil
}

type logStoreStub struct {
	entries []models.Log
}

func (s *logStoreStub) Create(ctx context.Context, entry *models.Log) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *logStoreStub) ListByErratum(ctx context.Context, erratumID int64) ([]models.Log, error) {
	var out []models.Log
	for _, entry := range s.entries {
		if entry.ErratumID == erratumID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type notifierStub struct {
	events []Event
	errata []*models.Erratum
}

func (s *notifierStub) Notify(ctx context.Context, erratum *models.Erratum, meta *models.RfcMetadata, event Event, senderEmail string) error {
	s.events = append(s.events, event)
	s.errata = append(s.errata, erratum)
	return nil
}

type observerStub struct {
	statuses []models.StatusSlug
	queries  []string
}

func (s *observerStub) ObserveClassification(status models.StatusSlug) {
	s.statuses = append(s.statuses, status)
}

func (s *observerStub) ObserveDBQuery(label string, duration time.Duration) {
	s.queries = append(s.queries, label)
}

type invalidatorStub struct {
	invalidations int
}

func (s *invalidatorStub) InvalidateCorpus(ctx context.Context) {
	s.invalidations++
}

type erratumFixture struct {
	svc      *ErratumService
	errata   *fullErratumStoreStub
	staged   *stagedConverterStub
	logs     *logStoreStub
	notify   *notifierStub
	exports  *invalidatorStub
	observer *observerStub
	rfcs     *rfcStoreStub
}

func newErratumFixture() *erratumFixture {
	errata := &fullErratumStoreStub{erratumStoreStub: erratumStoreStub{errata: map[int64]*models.Erratum{}}}
	rfcs := &rfcStoreStub{metas: map[int]*models.RfcMetadata{}}
	staged := &stagedConverterStub{staged: map[string]*models.StagedErratum{}}
	logs := &logStoreStub{}
	notify := &notifierStub{}
	exports := &invalidatorStub{}
	observer := &observerStub{}
	visibility := NewVisibilityService(&errata.erratumStoreStub, rfcs, nil)
	svc := NewErratumService(errata, staged, rfcs, logs, visibility, notify, exports, observer, validator.New(), nil)
	return &erratumFixture{svc: svc, errata: errata, staged: staged, logs: logs, notify: notify, exports: exports, observer: observer, rfcs: rfcs}
}

func rpcClaims() *models.JWTClaims {
	return &models.JWTClaims{
		UserID: "rpc", Name: "RPC Staff", Email: "rpc@rfc-editor.org",
		Roles: [][]string{{"auth", "rpc"}},
	}
}

func submittedStaged(id string, rfcNumber int) *models.StagedErratum {
	submittedAt := time.Now().UTC()
	return &models.StagedErratum{
		ID:             id,
		EntryStatus:    models.EntrySubmitted,
		RFCNumber:      rfcNumber,
		Section:        "2",
		OrigText:       "teh",
		CorrectedText:  "the",
		SubmitterName:  "Jane Reporter",
		SubmitterEmail: "jane@example.com",
		SubmittedAt:    &submittedAt,
	}
}

func TestConvertStagedCreatesErratumAndNotifies(t *testing.T) {
	f := newErratumFixture()
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}
	f.staged.staged["s1"] = submittedStaged("s1", 9000)

	erratum, err := f.svc.ConvertStaged(context.Background(), rpcClaims(), "s1", dto.ConvertStagedRequest{ErratumType: "technical"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, erratum.Status)
	assert.Equal(t, models.TypeTechnical, erratum.TypeOrEmpty())
	require.Len(t, f.notify.events, 1)
	assert.Equal(t, EventSubmitted, f.notify.events[0])
}

func TestConvertStagedTwiceNeverDuplicates(t *testing.T) {
	f := newErratumFixture()
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}
	f.staged.staged["s1"] = submittedStaged("s1", 9000)

	_, err := f.svc.ConvertStaged(context.Background(), rpcClaims(), "s1", dto.ConvertStagedRequest{ErratumType: "editorial"})
	require.NoError(t, err)

	_, err = f.svc.ConvertStaged(context.Background(), rpcClaims(), "s1", dto.ConvertStagedRequest{ErratumType: "editorial"})
	require.Error(t, err)
	code := appErrors.FromError(err).Code
	assert.Contains(t, []string{appErrors.ErrNotFound.Code, appErrors.ErrPreconditionFailed.Code}, code)
	assert.Equal(t, int64(1), f.staged.converted)
}

func TestConvertStagedRequiresSubmittedEntry(t *testing.T) {
	f := newErratumFixture()
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}
	staged := submittedStaged("s1", 9000)
	staged.EntryStatus = models.EntryIncomplete
	f.staged.staged["s1"] = staged

	_, err := f.svc.ConvertStaged(context.Background(), rpcClaims(), "s1", dto.ConvertStagedRequest{ErratumType: "technical"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func reportedErratum(id int64, rfcNumber int) *models.Erratum {
	typ := models.TypeTechnical
	return &models.Erratum{
		ID: id, RFCNumber: rfcNumber, Status: models.StatusReported, Type: &typ,
		Section: "2", OrigText: "teh", CorrectedText: "the",
		SubmitterName: "Jane Reporter", SubmitterEmail: "jane@example.com",
	}
}

func TestClassifyAppliesDecisionAndLogs(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}

	erratum, err := f.svc.Classify(context.Background(), rpcClaims(), 1, dto.ClassifyRequest{Status: "verified"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, erratum.Status)
	require.NotNil(t, erratum.VerifierEmail)
	assert.Equal(t, "rpc@rfc-editor.org", *erratum.VerifierEmail)

	// The audit row snapshots the pre-transition record.
	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, models.StatusReported, f.logs.entries[0].Status)
	assert.Equal(t, "rpc@rfc-editor.org", f.logs.entries[0].EditorEmail)

	require.Len(t, f.notify.events, 1)
	assert.Equal(t, EventClassified, f.notify.events[0])
	assert.Equal(t, []models.StatusSlug{models.StatusVerified}, f.observer.statuses)
}

func TestClassifyInvalidatesCorpusExport(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}

	_, err := f.svc.Classify(context.Background(), rpcClaims(), 1, dto.ClassifyRequest{Status: "verified"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.exports.invalidations)
}

func TestConvertStagedInvalidatesCorpusExport(t *testing.T) {
	f := newErratumFixture()
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}
	f.staged.staged["s1"] = submittedStaged("s1", 9000)

	_, err := f.svc.ConvertStaged(context.Background(), rpcClaims(), "s1", dto.ConvertStagedRequest{ErratumType: "technical"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.exports.invalidations)
}

func TestClassifyDropsCachedCorpusKey(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}

	corpusCache := newCorpusCacheStub()
	exports := NewExportService(f.errata, corpusCache, nil, nil, time.Hour, nil)
	f.svc.exports = exports

	_, err := exports.CorpusJSON(context.Background())
	require.NoError(t, err)
	require.Contains(t, corpusCache.values, corpusCacheKey)

	_, err = f.svc.Classify(context.Background(), rpcClaims(), 1, dto.ClassifyRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.NotContains(t, corpusCache.values, corpusCacheKey)
}

func TestClassifyOutOfScopeMasksAsNotFound(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF, AreaAcronym: "tsv"}

	claims := &models.JWTClaims{
		UserID: "ad", Email: "ad@ietf.org",
		Roles: [][]string{{"ad", "iesg"}, {"ad", "art"}},
	}
	_, err := f.svc.Classify(context.Background(), claims, 1, dto.ClassifyRequest{Status: "verified"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.notify.events)
	assert.Zero(t, f.exports.invalidations)
}

func TestClassifyAlreadyClassified(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}
	f.errata.classifyErr = sql.ErrNoRows

	_, err := f.svc.Classify(context.Background(), rpcClaims(), 1, dto.ClassifyRequest{Status: "rejected"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestClassifyRejectsIdenticalEditedText(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Stream: models.StreamIETF}

	same := "teh"
	_, err := f.svc.Classify(context.Background(), rpcClaims(), 1, dto.ClassifyRequest{
		Status:        "verified",
		CorrectedText: &same,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSearchInvalidDatePrefix(t *testing.T) {
	f := newErratumFixture()
	_, err := f.svc.Search(context.Background(), dto.SearchQuery{Date: "20-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSearchNormalizesFilters(t *testing.T) {
	f := newErratumFixture()
	_, err := f.svc.Search(context.Background(), dto.SearchQuery{Status: "held", Stream: "ISE", Date: "2024-06"})
	require.NoError(t, err)
	require.NotNil(t, f.errata.filter)
	assert.Equal(t, string(models.StatusHeld), f.errata.filter.Status)
	assert.Equal(t, string(models.StreamIndependent), f.errata.filter.Stream)
	assert.Equal(t, "2024-06", f.errata.filter.DatePrefix)
}

func TestSearchObservesQueryDuration(t *testing.T) {
	f := newErratumFixture()
	_, err := f.svc.Search(context.Background(), dto.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"errata_search"}, f.observer.queries)
}

func TestSearchDefaultsPaging(t *testing.T) {
	f := newErratumFixture()
	result, err := f.svc.Search(context.Background(), dto.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, 100, result.Pagination.PageSize)
	assert.Equal(t, 0, f.errata.filter.Offset)
}

func TestGetMissingErratum(t *testing.T) {
	f := newErratumFixture()
	_, err := f.svc.Get(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetIncludesMetadataAndHistory(t *testing.T) {
	f := newErratumFixture()
	f.errata.errata[1] = reportedErratum(1, 9000)
	f.rfcs.metas[9000] = &models.RfcMetadata{RFCNumber: 9000, Title: "A Protocol", Stream: models.StreamIETF}
	f.logs.entries = append(f.logs.entries, models.Log{ErratumID: 1, Status: models.StatusReported})

	detail, err := f.svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, detail.Metadata)
	assert.Equal(t, "A Protocol", detail.Metadata.Title)
	assert.Len(t, detail.History, 1)
}
