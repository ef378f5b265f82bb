package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/internal/repository"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type erratumStore interface {
	GetByID(ctx context.Context, id int64) (*models.Erratum, error)
	ListReported(ctx context.Context, scope models.VisibilityScope) ([]models.Erratum, error)
	Search(ctx context.Context, filter models.ErratumFilter) ([]models.Erratum, int, error)
	ListAll(ctx context.Context) ([]models.Erratum, error)
	Classify(ctx context.Context, params repository.ClassificationParams) error
}

type stagedConverter interface {
	GetByID(ctx context.Context, id string) (*models.StagedErratum, error)
	ConvertToErratum(ctx context.Context, staged *models.StagedErratum, erratumType models.TypeSlug) (*models.Erratum, error)
}

type logStore interface {
	Create(ctx context.Context, entry *models.Log) error
	ListByErratum(ctx context.Context, erratumID int64) ([]models.Log, error)
}

type notifier interface {
	Notify(ctx context.Context, erratum *models.Erratum, meta *models.RfcMetadata, event Event, senderEmail string) error
}

type metricsObserver interface {
	ObserveClassification(status models.StatusSlug)
	ObserveDBQuery(label string, duration time.Duration)
}

type corpusInvalidator interface {
	InvalidateCorpus(ctx context.Context)
}

var datePrefixPattern = regexp.MustCompile(`^\d{4}(?:-\d{1,2}(?:-\d{1,2})?)?$`)

// ErratumDetail bundles an erratum with its RFC metadata and history.
type ErratumDetail struct {
	Erratum  models.Erratum      `json:"erratum"`
	Metadata *models.RfcMetadata `json:"rfc_metadata,omitempty"`
	History  []models.Log        `json:"history,omitempty"`
}

// SearchResult is one page of public search output.
type SearchResult struct {
	Errata     []models.Erratum  `json:"errata"`
	Pagination models.Pagination `json:"-"`
}

// ErratumService drives the screening and verification state machine and
// the public read surfaces.
type ErratumService struct {
	errata     erratumStore
	staged     stagedConverter
	rfcs       rfcMetadataStore
	logs       logStore
	visibility *VisibilityService
	notify     notifier
	exports    corpusInvalidator
	metrics    metricsObserver
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewErratumService constructs the service. exports receives cache
// invalidations whenever a classification or conversion changes what the
// public corpus export would serve.
func NewErratumService(
	errata erratumStore,
	staged stagedConverter,
	rfcs rfcMetadataStore,
	logs logStore,
	visibility *VisibilityService,
	notify notifier,
	exports corpusInvalidator,
	metrics metricsObserver,
	validate *validator.Validate,
	logger *zap.Logger,
) *ErratumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErratumService{
		errata:     errata,
		staged:     staged,
		rfcs:       rfcs,
		logs:       logs,
		visibility: visibility,
		notify:     notify,
		exports:    exports,
		metrics:    metrics,
		validate:   validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ConvertStaged screens a submitted report entry into a canonical erratum.
// The staged row is deleted in the same transaction, so a repeated call
// cannot create a second erratum. The reported notification goes out here:
// this is the first moment the erratum has a classification for the
// resolver to branch on.
func (s *ErratumService) ConvertStaged(ctx context.Context, claims *models.JWTClaims, stagedID string, req dto.ConvertStagedRequest) (*models.Erratum, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid screening decision")
	}

	staged, err := s.staged.GetByID(ctx, stagedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report entry")
	}
	if staged.EntryStatus != models.EntrySubmitted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry has not been submitted for screening")
	}

	meta, err := s.rfcs.GetByNumber(ctx, staged.RFCNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown RFC number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rfc metadata")
	}

	erratum, err := s.staged.ConvertToErratum(ctx, staged, models.TypeSlug(req.ErratumType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already converted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to convert report entry")
	}
	if s.exports != nil {
		s.exports.InvalidateCorpus(ctx)
	}

	if err := s.notify.Notify(ctx, erratum, meta, EventSubmitted, senderEmail(claims)); err != nil {
		// The erratum exists either way; notification failures are logged
		// and retried on the dispatch queue, not rolled back.
		s.logger.Error("reported notification failed",
			zap.Int64("erratum_id", erratum.ID), zap.Error(err))
	}
	return erratum, nil
}

// Classify applies a verifier decision to a reported erratum. Authorization
// failures surface as not-found so an ineligible verifier cannot probe
// which errata exist in other jurisdictions.
func (s *ErratumService) Classify(ctx context.Context, claims *models.JWTClaims, erratumID int64, req dto.ClassifyRequest) (*models.Erratum, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classification")
	}

	allowed, err := s.visibility.CanClassify(ctx, claims, erratumID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.ErrNotFound
	}

	// Snapshot of the pre-transition record; also the consistent read the
	// notification is resolved against.
	erratum, err := s.errata.GetByID(ctx, erratumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load erratum")
	}
	meta, err := s.rfcs.GetByNumber(ctx, erratum.RFCNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rfc metadata")
	}

	edits := models.ClassifyEdits{
		Section:       req.Section,
		OrigText:      req.OrigText,
		CorrectedText: req.CorrectedText,
		Notes:         req.Notes,
	}
	if correctedEqualsOriginal(erratum, edits) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "corrected text must differ from the original text")
	}

	verifiedAt := s.now()
	params := repository.ClassificationParams{
		ID:            erratum.ID,
		Status:        models.StatusSlug(req.Status),
		VerifierName:  claims.Name,
		VerifierEmail: claims.Email,
		VerifiedAt:    verifiedAt,
		Edits:         edits,
	}
	if err := s.errata.Classify(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "erratum already classified")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to classify erratum")
	}
	// The status changed, so the cached public corpus is stale.
	if s.exports != nil {
		s.exports.InvalidateCorpus(ctx)
	}

	// Append the pre-transition snapshot to the audit trail.
	logEntry := &models.Log{
		ErratumID:     erratum.ID,
		VerifierName:  erratum.VerifierName,
		VerifierEmail: erratum.VerifierEmail,
		Status:        erratum.Status,
		Type:          erratum.TypeOrEmpty(),
		EditorEmail:   claims.Email,
		Section:       erratum.Section,
		OrigText:      erratum.OrigText,
		CorrectedText: erratum.CorrectedText,
		Notes:         erratum.Notes,
		CreatedAt:     verifiedAt,
	}
	if err := s.logs.Create(ctx, logEntry); err != nil {
		s.logger.Error("audit log append failed",
			zap.Int64("erratum_id", erratum.ID), zap.Error(err))
	}

	applyClassification(erratum, params)
	if s.metrics != nil {
		s.metrics.ObserveClassification(erratum.Status)
	}

	if err := s.notify.Notify(ctx, erratum, meta, EventClassified, claims.Email); err != nil {
		s.logger.Error("classified notification failed",
			zap.Int64("erratum_id", erratum.ID), zap.Error(err))
	}
	return erratum, nil
}

// Queue returns the reported errata the user may act on.
func (s *ErratumService) Queue(ctx context.Context, claims *models.JWTClaims) ([]models.Erratum, error) {
	return s.visibility.VisibleReported(ctx, claims)
}

// Search runs the public errata search.
func (s *ErratumService) Search(ctx context.Context, query dto.SearchQuery) (*SearchResult, error) {
	if query.Date != "" && !datePrefixPattern.MatchString(query.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be a valid prefix of YYYY-MM-DD")
	}

	filter := models.ErratumFilter{
		RFCNumber:     query.RFCNumber,
		ErratumID:     query.ErratumID,
		Status:        normalizeStatusFilter(query.Status),
		Area:          query.Area,
		Type:          query.Type,
		GroupAcronym:  query.GroupAcronym,
		SubmitterName: query.SubmitterName,
		Stream:        normalizeStreamFilter(query.Stream),
		DatePrefix:    query.Date,
	}

	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	started := time.Now()
	errata, total, err := s.errata.Search(ctx, filter)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("errata_search", time.Since(started))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search errata")
	}
	return &SearchResult{
		Errata:     errata,
		Pagination: models.Pagination{Page: page, PageSize: pageSize, TotalCount: total},
	}, nil
}

// Get returns one erratum with its RFC metadata and audit history.
func (s *ErratumService) Get(ctx context.Context, id int64) (*ErratumDetail, error) {
	erratum, err := s.errata.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load erratum")
	}
	detail := &ErratumDetail{Erratum: *erratum}

	meta, err := s.rfcs.GetByNumber(ctx, erratum.RFCNumber)
	if err == nil {
		detail.Metadata = meta
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rfc metadata")
	}

	history, err := s.logs.ListByErratum(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load erratum history")
	}
	detail.History = history
	return detail, nil
}

func applyClassification(erratum *models.Erratum, params repository.ClassificationParams) {
	erratum.Status = params.Status
	erratum.VerifierName = &params.VerifierName
	erratum.VerifierEmail = &params.VerifierEmail
	verifiedAt := params.VerifiedAt
	erratum.VerifiedAt = &verifiedAt
	erratum.UpdatedAt = verifiedAt
	if params.Edits.Section != nil {
		erratum.Section = *params.Edits.Section
	}
	if params.Edits.OrigText != nil {
		erratum.OrigText = *params.Edits.OrigText
	}
	if params.Edits.CorrectedText != nil {
		erratum.CorrectedText = *params.Edits.CorrectedText
	}
	if params.Edits.Notes != nil {
		erratum.Notes = *params.Edits.Notes
	}
}

func correctedEqualsOriginal(erratum *models.Erratum, edits models.ClassifyEdits) bool {
	orig := erratum.OrigText
	if edits.OrigText != nil {
		orig = *edits.OrigText
	}
	corrected := erratum.CorrectedText
	if edits.CorrectedText != nil {
		corrected = *edits.CorrectedText
	}
	return corrected == orig
}

// normalizeStatusFilter maps the public form values onto status slugs.
func normalizeStatusFilter(raw string) string {
	switch raw {
	case "held":
		return string(models.StatusHeld)
	default:
		return raw
	}
}

// normalizeStreamFilter maps the upper/mixed-case stream tokens found in
// bookmarked query strings onto stored stream values.
func normalizeStreamFilter(raw string) string {
	switch lower := strings.ToLower(raw); lower {
	case "", "any":
		return ""
	case "ise":
		// The historical query strings call the independent stream "ise".
		return string(models.StreamIndependent)
	default:
		return lower
	}
}

func senderEmail(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	return claims.Email
}
