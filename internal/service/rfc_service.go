package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

type rfcWriteStore interface {
	rfcMetadataStore
	Upsert(ctx context.Context, meta *models.RfcMetadata) error
}

// RfcService exposes the validated metadata upsert the external datatracker
// sync feeds into this service.
type RfcService struct {
	rfcs     rfcWriteStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRfcService constructs the service.
func NewRfcService(rfcs rfcWriteStore, validate *validator.Validate, logger *zap.Logger) *RfcService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RfcService{rfcs: rfcs, validate: validate, logger: logger}
}

// Upsert inserts or replaces the metadata row for one RFC. Address fields
// feed the notification resolver, so they get strict header parsing here
// rather than surfacing as bounced mail later.
func (s *RfcService) Upsert(ctx context.Context, req dto.UpsertRfcMetadataRequest) (*models.RfcMetadata, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rfc metadata")
	}
	for _, addr := range req.AuthorEmails {
		if err := validAddress(addr); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "author email "+addr+" is not a valid address")
		}
	}
	for _, addr := range req.AreaADEmails {
		if err := validAddress(addr); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "area AD email "+addr+" is not a valid address")
		}
	}
	for _, addr := range []string{req.ShepherdEmail, req.DocADEmail, req.GroupListEmail} {
		if addr == "" {
			continue
		}
		if err := validAddress(addr); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "address "+addr+" is not valid")
		}
	}

	meta := &models.RfcMetadata{
		RFCNumber:        req.RFCNumber,
		Title:            req.Title,
		DraftName:        req.DraftName,
		PublicationYear:  req.PublicationYear,
		PublicationMonth: req.PublicationMonth,
		AuthorNames:      req.AuthorNames,
		AuthorEmails:     pq.StringArray(req.AuthorEmails),
		ShepherdEmail:    req.ShepherdEmail,
		DocADEmail:       req.DocADEmail,
		AreaADEmails:     pq.StringArray(req.AreaADEmails),
		StdLevel:         req.StdLevel,
		GroupAcronym:     req.GroupAcronym,
		GroupName:        req.GroupName,
		GroupListEmail:   req.GroupListEmail,
		AreaAcronym:      req.AreaAcronym,
		AreaAssignment:   req.AreaAssignment,
		Stream:           models.Stream(req.Stream),
		ObsoletedBy:      req.ObsoletedBy,
		UpdatedBy:        req.UpdatedBy,
	}
	if err := s.rfcs.Upsert(ctx, meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert rfc metadata")
	}
	s.logger.Info("rfc metadata upserted", zap.Int("rfc_number", meta.RFCNumber))
	return meta, nil
}

// Get returns the metadata row for one RFC.
func (s *RfcService) Get(ctx context.Context, rfcNumber int) (*models.RfcMetadata, error) {
	meta, err := s.rfcs.GetByNumber(ctx, rfcNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rfc metadata")
	}
	return meta, nil
}

func validAddress(addr string) error {
	_, err := mail.ParseAddress(addr)
	return err
}
