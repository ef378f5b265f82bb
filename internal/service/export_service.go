package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ietf-tools/errata-api/internal/dto"
	"github.com/ietf-tools/errata-api/internal/models"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/export"
)

const (
	corpusCacheKey = "errata:corpus:json"

	submitDateLayout = "2006-01-02"
	updateDateLayout = "2006-01-02 15:04:05"
)

type corpusStore interface {
	ListAll(ctx context.Context) ([]models.Erratum, error)
}

type corpusCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, key string)
}

type snapshotStorage interface {
	Save(filename string, data []byte) (string, error)
}

type snapshotSigner interface {
	Generate(snapshotID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (snapshotID, relPath string, expiresAt time.Time, err error)
}

// SnapshotFile describes one written snapshot artifact with its signed
// download token.
type SnapshotFile struct {
	Path      string    `json:"path"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService produces the legacy errata.json corpus and the periodic
// static-site snapshot with CSV and PDF renditions.
type ExportService struct {
	errata   corpusStore
	cache    corpusCache
	storage  snapshotStorage
	signer   snapshotSigner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service. storage and signer may be nil
// when snapshots are disabled.
func NewExportService(
	errata corpusStore,
	cache corpusCache,
	store snapshotStorage,
	signer snapshotSigner,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ExportService{
		errata:   errata,
		cache:    cache,
		storage:  store,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CorpusJSON returns every erratum in the legacy errata.json record shape,
// served from cache when fresh.
func (s *ExportService) CorpusJSON(ctx context.Context) ([]dto.ErratumJSONRow, error) {
	var cached []dto.ErratumJSONRow
	err := s.cache.Get(ctx, corpusCacheKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("corpus cache read failed", zap.Error(err))
	}

	rows, err := s.buildCorpus(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, corpusCacheKey, rows, s.cacheTTL); err != nil {
		s.logger.Warn("corpus cache write failed", zap.Error(err))
	}
	return rows, nil
}

// InvalidateCorpus drops the cached corpus. Called after classification so
// the export reflects the new status within one request.
func (s *ExportService) InvalidateCorpus(ctx context.Context) {
	s.cache.Invalidate(ctx, corpusCacheKey)
}

// WriteSnapshot writes the corpus to local storage as JSON, CSV and PDF and
// returns signed download tokens for each artifact. Run by the snapshot
// ticker.
func (s *ExportService) WriteSnapshot(ctx context.Context) ([]SnapshotFile, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "snapshot storage is not configured")
	}

	rows, err := s.buildCorpus(ctx)
	if err != nil {
		return nil, err
	}

	snapshotID := s.now().Format("20060102T150405Z")
	files := make([]SnapshotFile, 0, 3)

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal corpus")
	}
	jsonFile, err := s.write(snapshotID, "errata.json", raw)
	if err != nil {
		return nil, err
	}
	files = append(files, *jsonFile)

	dataset := corpusDataset(rows)
	csvBytes, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render corpus csv")
	}
	csvFile, err := s.write(snapshotID, "errata.csv", csvBytes)
	if err != nil {
		return nil, err
	}
	files = append(files, *csvFile)

	pdfBytes, err := s.pdf.Render(summaryDataset(rows), "RFC Errata")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render corpus pdf")
	}
	pdfFile, err := s.write(snapshotID, "errata.pdf", pdfBytes)
	if err != nil {
		return nil, err
	}
	files = append(files, *pdfFile)

	s.logger.Info("snapshot written",
		zap.String("snapshot_id", snapshotID), zap.Int("records", len(rows)))
	return files, nil
}

// OpenSnapshot validates a signed token and returns the relative path of
// the artifact it references.
func (s *ExportService) OpenSnapshot(token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "snapshot storage is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	return relPath, nil
}

func (s *ExportService) write(snapshotID, name string, data []byte) (*SnapshotFile, error) {
	relPath := snapshotID + "/" + name
	if _, err := s.storage.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write snapshot file")
	}
	token, expiresAt, err := s.signer.Generate(snapshotID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign snapshot file")
	}
	return &SnapshotFile{Path: relPath, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *ExportService) buildCorpus(ctx context.Context) ([]dto.ErratumJSONRow, error) {
	errata, err := s.errata.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list errata")
	}

	rows := make([]dto.ErratumJSONRow, 0, len(errata))
	for i := range errata {
		rows = append(rows, corpusRow(&errata[i]))
	}
	return rows, nil
}

// corpusRow maps one erratum onto the legacy record shape. The key names
// and value formats are consumed by long-standing downstream scrapers.
func corpusRow(e *models.Erratum) dto.ErratumJSONRow {
	row := dto.ErratumJSONRow{
		ErrataID:      strconv.FormatInt(e.ID, 10),
		DocID:         fmt.Sprintf("RFC%d", e.RFCNumber),
		StatusCode:    models.StatusName(e.Status),
		TypeCode:      models.TypeName(e.TypeOrEmpty()),
		Section:       exportSection(e.Section),
		OrigText:      e.OrigText,
		CorrectText:   e.CorrectedText,
		Notes:         e.Notes,
		SubmitterName: e.SubmitterName,
		UpdateDate:    e.UpdatedAt.Format(updateDateLayout),
	}
	if e.SubmittedAt != nil {
		row.SubmitDate = e.SubmittedAt.Format(submitDateLayout)
	}
	if e.VerifierName != nil {
		row.VerifierName = *e.VerifierName
	}
	// verifier_id is deprecated; the public record always carries it empty.
	return row
}

// exportSection strips the "99" sort prefix the legacy entry form attached
// to whole-document reports.
func exportSection(section string) string {
	if !strings.HasPrefix(section, "99") {
		return section
	}
	return strings.TrimPrefix(section, "99")
}

var corpusHeaders = []string{
	"errata_id", "doc-id", "errata_status_code", "errata_type_code",
	"section", "submit_date", "submitter_name", "verifier_name", "update_date",
}

func corpusDataset(rows []dto.ErratumJSONRow) export.Dataset {
	out := export.Dataset{Headers: corpusHeaders}
	for _, row := range rows {
		out.Rows = append(out.Rows, map[string]string{
			"errata_id":          row.ErrataID,
			"doc-id":             row.DocID,
			"errata_status_code": row.StatusCode,
			"errata_type_code":   row.TypeCode,
			"section":            row.Section,
			"submit_date":        row.SubmitDate,
			"submitter_name":     row.SubmitterName,
			"verifier_name":      row.VerifierName,
			"update_date":        row.UpdateDate,
		})
	}
	return out
}

// summaryDataset keeps the PDF to the columns that fit a portrait page.
func summaryDataset(rows []dto.ErratumJSONRow) export.Dataset {
	out := export.Dataset{Headers: []string{"errata_id", "doc-id", "status", "type", "submitted"}}
	for _, row := range rows {
		out.Rows = append(out.Rows, map[string]string{
			"errata_id": row.ErrataID,
			"doc-id":    row.DocID,
			"status":    row.StatusCode,
			"type":      row.TypeCode,
			"submitted": row.SubmitDate,
		})
	}
	return out
}
