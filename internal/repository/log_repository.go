package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ietf-tools/errata-api/internal/models"
)

// LogRepository appends erratum history snapshots. There is no update or
// delete path on purpose.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs the repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create appends one snapshot row.
func (r *LogRepository) Create(ctx context.Context, entry *models.Log) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO erratum_logs
	(erratum_id, verifier_name, verifier_email, status_slug, erratum_type_slug,
	 editor_email, section, orig_text, corrected_text, notes, created_at)
	VALUES (:erratum_id, :verifier_name, :verifier_email, :status_slug, :erratum_type_slug,
	 :editor_email, :section, :orig_text, :corrected_text, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append erratum log: %w", err)
	}
	return nil
}

// ListByErratum returns the history of one erratum, oldest first.
func (r *LogRepository) ListByErratum(ctx context.Context, erratumID int64) ([]models.Log, error) {
	const query = `SELECT id, erratum_id, verifier_name, verifier_email, status_slug,
	 erratum_type_slug, editor_email, section, orig_text, corrected_text, notes, created_at
	FROM erratum_logs WHERE erratum_id = $1 ORDER BY created_at, id`
	logs := []models.Log{}
	if err := r.db.SelectContext(ctx, &logs, query, erratumID); err != nil {
		return nil, fmt.Errorf("list erratum logs: %w", err)
	}
	return logs, nil
}
