package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type stagedStore interface {
	Create(ctx context.Context, staged *models.StagedErratum) error
	GetByID(ctx context.Context, id string) (*models.StagedErratum, error)
	Update(ctx context.Context, staged *models.StagedErratum) error
	MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListIncompleteBefore(ctx context.Context, cutoff time.Time) ([]models.StagedErratum, error)
	DeleteIncompleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StagedService manages report entries through the incomplete → submitted
// lifecycle and the cleanup of abandoned entries.
type StagedService struct {
	staged   stagedStore
	rfcs     rfcMetadataStore
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewStagedService constructs the service.
func NewStagedService(staged stagedStore, rfcs rfcMetadataStore, validate *validator.Validate, logger *zap.Logger) *StagedService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StagedService{
		staged:   staged,
		rfcs:     rfcs,
		validate: validate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new incomplete report entry against an existing RFC.
func (s *StagedService) Create(ctx context.Context, req dto.CreateStagedRequest) (*models.StagedErratum, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report entry")
	}
	if _, err := s.rfcs.GetByNumber(ctx, req.RFCNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown RFC number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rfc metadata")
	}

	staged := &models.StagedErratum{
		EntryStatus:    models.EntryIncomplete,
		RFCNumber:      req.RFCNumber,
		Section:        req.Section,
		OrigText:       req.OrigText,
		CorrectedText:  req.CorrectedText,
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: req.SubmitterEmail,
		Notes:          req.Notes,
		Formats:        normalizeFormats(req.RFCNumber, req.Formats),
		CreatedAt:      s.now(),
	}
	if err := s.staged.Create(ctx, staged); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report entry")
	}
	return staged, nil
}

// Update patches an entry that is still incomplete.
func (s *StagedService) Update(ctx context.Context, id string, req dto.UpdateStagedRequest) (*models.StagedErratum, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report entry")
	}
	staged, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if staged.EntryStatus != models.EntryIncomplete {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already submitted")
	}

	if req.Section != nil {
		staged.Section = *req.Section
	}
	if req.OrigText != nil {
		staged.OrigText = *req.OrigText
	}
	if req.CorrectedText != nil {
		staged.CorrectedText = *req.CorrectedText
	}
	if req.SubmitterName != nil {
		staged.SubmitterName = *req.SubmitterName
	}
	if req.SubmitterEmail != nil {
		staged.SubmitterEmail = *req.SubmitterEmail
	}
	if req.Notes != nil {
		staged.Notes = *req.Notes
	}
	if req.Formats != nil {
		staged.Formats = normalizeFormats(staged.RFCNumber, *req.Formats)
	}

	if err := s.staged.Update(ctx, staged); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report entry")
	}
	return staged, nil
}

// Submit freezes an incomplete entry for RPC screening. Content becomes
// immutable afterwards.
func (s *StagedService) Submit(ctx context.Context, id string) (*models.StagedErratum, error) {
	staged, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if staged.EntryStatus != models.EntryIncomplete {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already submitted")
	}
	if staged.CorrectedText == staged.OrigText {
		return nil, appErrors.Clone(appErrors.ErrValidation, "corrected text must differ from the original text")
	}
	if _, err := mail.ParseAddress(staged.SubmitterEmail); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submitter email is not a valid address")
	}

	submittedAt := s.now()
	if err := s.staged.MarkSubmitted(ctx, id, submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report entry already submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit report entry")
	}
	staged.EntryStatus = models.EntrySubmitted
	staged.SubmittedAt = &submittedAt
	return staged, nil
}

// Get returns one staged entry for RPC screening.
func (s *StagedService) Get(ctx context.Context, id string) (*models.StagedErratum, error) {
	return s.get(ctx, id)
}

// Reject deletes an entry at screening without creating an erratum.
func (s *StagedService) Reject(ctx context.Context, id string) error {
	if err := s.staged.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report entry")
	}
	return nil
}

// StaleIncomplete lists incomplete entries older than the given age.
func (s *StagedService) StaleIncomplete(ctx context.Context, maxAge time.Duration) ([]models.StagedErratum, error) {
	staged, err := s.staged.ListIncompleteBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stale entries")
	}
	return staged, nil
}

// CleanupStale purges incomplete entries older than the given age. Run by
// the scheduled cleanup job.
func (s *StagedService) CleanupStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	purged, err := s.staged.DeleteIncompleteBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge stale entries")
	}
	if purged > 0 {
		s.logger.Info("purged stale report entries",
			zap.Int64("count", purged), zap.Time("cutoff", cutoff))
	}
	return purged, nil
}

func (s *StagedService) get(ctx context.Context, id string) (*models.StagedErratum, error) {
	staged, err := s.staged.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report entry")
	}
	return staged, nil
}

// normalizeFormats applies the plain-text restriction: RFCs published
// before the v3 format era exist only as TXT, whatever the reporter asked
// for.
func normalizeFormats(rfcNumber int, requested []string) pq.StringArray {
	if rfcNumber < models.TxtOnlyBoundary {
		return pq.StringArray{models.FormatTXT}
	}
	if len(requested) == 0 {
		return pq.StringArray{models.FormatTXT}
	}
	seen := make(map[string]struct{}, len(requested))
	formats := make(pq.StringArray, 0, len(requested))
	for _, format := range requested {
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}
		formats = append(formats, format)
	}
	return formats
}
