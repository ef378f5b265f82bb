package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ietf-tools/errata-api/internal/models"
)

// MailRepository persists outbound notification records.
type MailRepository struct {
	db *sqlx.DB
}

// NewMailRepository constructs the repository.
func NewMailRepository(db *sqlx.DB) *MailRepository {
	return &MailRepository{db: db}
}

// Create inserts a new unsent message.
func (r *MailRepository) Create(ctx context.Context, message *models.MailMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mail_messages
	(id, erratum_id, to_addresses, cc_addresses, subject, body, sender, sent, attempts, created_at)
	VALUES (:id, :erratum_id, :to_addresses, :cc_addresses, :subject, :body, :sender, :sent, :attempts, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create mail message: %w", err)
	}
	return nil
}

// GetByID fetches a message by identifier.
func (r *MailRepository) GetByID(ctx context.Context, id string) (*models.MailMessage, error) {
	const query = `SELECT id, erratum_id, to_addresses, cc_addresses, subject, body, sender,
	 sent, attempts, created_at FROM mail_messages WHERE id = $1`
	var message models.MailMessage
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkSent records a successful delivery attempt.
func (r *MailRepository) MarkSent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mail_messages SET sent = TRUE, attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark mail sent: %w", err)
	}
	return requireRow(result)
}

// RecordAttempt increments the attempt counter after a failed delivery.
func (r *MailRepository) RecordAttempt(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mail_messages SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record mail attempt: %w", err)
	}
	return requireRow(result)
}
