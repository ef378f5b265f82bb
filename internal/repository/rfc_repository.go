package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ietf-tools/errata-api/internal/models"
)

const rfcColumns = `rfc_number, title, draft_name, publication_year, publication_month,
       author_names, author_emails, shepherd_email, doc_ad_email, area_ad_emails, std_level,
       group_acronym, group_name, group_list_email, area_acronym, area_assignment, stream,
       obsoleted_by, updated_by`

// RfcRepository reads and upserts RFC reference metadata.
type RfcRepository struct {
	db *sqlx.DB
}

// NewRfcRepository constructs the repository.
func NewRfcRepository(db *sqlx.DB) *RfcRepository {
	return &RfcRepository{db: db}
}

// GetByNumber fetches metadata for one RFC.
func (r *RfcRepository) GetByNumber(ctx context.Context, rfcNumber int) (*models.RfcMetadata, error) {
	query := fmt.Sprintf(`SELECT %s FROM rfc_metadata WHERE rfc_number = $1`, rfcColumns)
	var meta models.RfcMetadata
	if err := r.db.GetContext(ctx, &meta, query, rfcNumber); err != nil {
		return nil, err
	}
	return &meta, nil
}

// GetByNumbers fetches metadata for a set of RFCs keyed by number.
func (r *RfcRepository) GetByNumbers(ctx context.Context, rfcNumbers []int) (map[int]*models.RfcMetadata, error) {
	result := make(map[int]*models.RfcMetadata, len(rfcNumbers))
	if len(rfcNumbers) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM rfc_metadata WHERE rfc_number IN (?)`, rfcColumns), rfcNumbers)
	if err != nil {
		return nil, fmt.Errorf("build metadata query: %w", err)
	}
	query = r.db.Rebind(query)
	rows := []models.RfcMetadata{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch rfc metadata: %w", err)
	}
	for i := range rows {
		result[rows[i].RFCNumber] = &rows[i]
	}
	return result, nil
}

// Upsert writes one synced metadata row, replacing any previous values.
func (r *RfcRepository) Upsert(ctx context.Context, meta *models.RfcMetadata) error {
	const query = `INSERT INTO rfc_metadata
	(rfc_number, title, draft_name, publication_year, publication_month, author_names,
	 author_emails, shepherd_email, doc_ad_email, area_ad_emails, std_level, group_acronym,
	 group_name, group_list_email, area_acronym, area_assignment, stream, obsoleted_by, updated_by)
	VALUES (:rfc_number, :title, :draft_name, :publication_year, :publication_month, :author_names,
	 :author_emails, :shepherd_email, :doc_ad_email, :area_ad_emails, :std_level, :group_acronym,
	 :group_name, :group_list_email, :area_acronym, :area_assignment, :stream, :obsoleted_by, :updated_by)
	ON CONFLICT (rfc_number) DO UPDATE SET
	 title = EXCLUDED.title, draft_name = EXCLUDED.draft_name,
	 publication_year = EXCLUDED.publication_year, publication_month = EXCLUDED.publication_month,
	 author_names = EXCLUDED.author_names, author_emails = EXCLUDED.author_emails,
	 shepherd_email = EXCLUDED.shepherd_email, doc_ad_email = EXCLUDED.doc_ad_email,
	 area_ad_emails = EXCLUDED.area_ad_emails, std_level = EXCLUDED.std_level,
	 group_acronym = EXCLUDED.group_acronym, group_name = EXCLUDED.group_name,
	 group_list_email = EXCLUDED.group_list_email, area_acronym = EXCLUDED.area_acronym,
	 area_assignment = EXCLUDED.area_assignment, stream = EXCLUDED.stream,
	 obsoleted_by = EXCLUDED.obsoleted_by, updated_by = EXCLUDED.updated_by`
	if _, err := r.db.NamedExecContext(ctx, query, meta); err != nil {
		return fmt.Errorf("upsert rfc metadata: %w", err)
	}
	return nil
}
