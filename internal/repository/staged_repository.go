package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ietf-tools/errata-api/internal/models"
)

const stagedColumns = `id, entry_status, rfc_number, section, orig_text, corrected_text,
       submitter_name, submitter_email, notes, formats, submitted_at, created_at`

// StagedRepository persists report entries awaiting screening.
type StagedRepository struct {
	db *sqlx.DB
}

// NewStagedRepository constructs the repository.
func NewStagedRepository(db *sqlx.DB) *StagedRepository {
	return &StagedRepository{db: db}
}

// Create inserts a new incomplete report entry.
func (r *StagedRepository) Create(ctx context.Context, staged *models.StagedErratum) error {
	if staged.ID == "" {
		staged.ID = uuid.NewString()
	}
	if staged.EntryStatus == "" {
		staged.EntryStatus = models.EntryIncomplete
	}
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staged_errata
	(id, entry_status, rfc_number, section, orig_text, corrected_text, submitter_name, submitter_email, notes, formats, submitted_at, created_at)
	VALUES (:id, :entry_status, :rfc_number, :section, :orig_text, :corrected_text, :submitter_name, :submitter_email, :notes, :formats, :submitted_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staged); err != nil {
		return fmt.Errorf("create staged erratum: %w", err)
	}
	return nil
}

// GetByID fetches a staged erratum by identifier.
func (r *StagedRepository) GetByID(ctx context.Context, id string) (*models.StagedErratum, error) {
	query := fmt.Sprintf(`SELECT %s FROM staged_errata WHERE id = $1`, stagedColumns)
	var staged models.StagedErratum
	if err := r.db.GetContext(ctx, &staged, query, id); err != nil {
		return nil, err
	}
	return &staged, nil
}

// Update rewrites the content fields of an entry that is still incomplete.
// Zero rows means the entry was submitted (or deleted) in the meantime.
func (r *StagedRepository) Update(ctx context.Context, staged *models.StagedErratum) error {
	const query = `UPDATE staged_errata SET
	section = :section, orig_text = :orig_text, corrected_text = :corrected_text,
	submitter_name = :submitter_name, submitter_email = :submitter_email,
	notes = :notes, formats = :formats
	WHERE id = :id AND entry_status = 'incomplete'`
	result, err := r.db.NamedExecContext(ctx, query, staged)
	if err != nil {
		return fmt.Errorf("update staged erratum: %w", err)
	}
	return requireRow(result)
}

// MarkSubmitted freezes an incomplete entry for screening.
func (r *StagedRepository) MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error {
	const query = `UPDATE staged_errata SET entry_status = 'submitted', submitted_at = $2
	WHERE id = $1 AND entry_status = 'incomplete'`
	result, err := r.db.ExecContext(ctx, query, id, submittedAt)
	if err != nil {
		return fmt.Errorf("submit staged erratum: %w", err)
	}
	return requireRow(result)
}

// ConvertToErratum atomically creates a canonical erratum from a submitted
// entry and deletes the entry. The guarded delete makes conversion
// at-most-once: a second call finds no submitted row and rolls back.
func (r *StagedRepository) ConvertToErratum(ctx context.Context, staged *models.StagedErratum, erratumType models.TypeSlug) (*models.Erratum, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin conversion: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`DELETE FROM staged_errata WHERE id = $1 AND entry_status = 'submitted'`, staged.ID)
	if err != nil {
		return nil, fmt.Errorf("delete staged erratum: %w", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	erratum := &models.Erratum{
		RFCNumber:      staged.RFCNumber,
		Status:         models.StatusReported,
		Type:           &erratumType,
		Section:        staged.Section,
		OrigText:       staged.OrigText,
		CorrectedText:  staged.CorrectedText,
		SubmitterName:  staged.SubmitterName,
		SubmitterEmail: staged.SubmitterEmail,
		Notes:          staged.Notes,
		Formats:        append(pq.StringArray{}, staged.Formats...),
		SubmittedAt:    staged.SubmittedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	const insert = `INSERT INTO errata
	(rfc_number, status_slug, erratum_type_slug, section, orig_text, corrected_text,
	 submitter_name, submitter_email, notes, formats, submitted_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id`
	if err := tx.GetContext(ctx, &erratum.ID, insert,
		erratum.RFCNumber, erratum.Status, erratumType, erratum.Section, erratum.OrigText,
		erratum.CorrectedText, erratum.SubmitterName, erratum.SubmitterEmail, erratum.Notes,
		erratum.Formats, erratum.SubmittedAt, erratum.CreatedAt, erratum.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert erratum: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit conversion: %w", err)
	}
	return erratum, nil
}

// Delete removes an entry outright (rejection at screening).
func (r *StagedRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM staged_errata WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staged erratum: %w", err)
	}
	return requireRow(result)
}

// ListIncompleteBefore returns incomplete entries created before the cutoff.
func (r *StagedRepository) ListIncompleteBefore(ctx context.Context, cutoff time.Time) ([]models.StagedErratum, error) {
	query := fmt.Sprintf(`SELECT %s FROM staged_errata
	WHERE entry_status = 'incomplete' AND created_at < $1 ORDER BY created_at`, stagedColumns)
	staged := []models.StagedErratum{}
	if err := r.db.SelectContext(ctx, &staged, query, cutoff); err != nil {
		return nil, fmt.Errorf("list stale staged errata: %w", err)
	}
	return staged, nil
}

// DeleteIncompleteBefore purges incomplete entries created before the cutoff
// and reports how many were removed.
func (r *StagedRepository) DeleteIncompleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM staged_errata WHERE entry_status = 'incomplete' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale staged errata: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check purge rows: %w", err)
	}
	return rows, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
