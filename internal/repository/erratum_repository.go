package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ietf-tools/errata-api/internal/models"
)

const erratumColumns = `id, rfc_number, status_slug, erratum_type_slug, section, orig_text,
       corrected_text, submitter_name, submitter_email, notes, formats, submitted_at,
       verifier_name, verifier_email, verified_at, created_at, updated_at`

// ErratumRepository persists canonical errata.
type ErratumRepository struct {
	db *sqlx.DB
}

// NewErratumRepository constructs the repository.
func NewErratumRepository(db *sqlx.DB) *ErratumRepository {
	return &ErratumRepository{db: db}
}

// GetByID fetches an erratum by identifier.
func (r *ErratumRepository) GetByID(ctx context.Context, id int64) (*models.Erratum, error) {
	query := fmt.Sprintf(`SELECT %s FROM errata WHERE id = $1`, erratumColumns)
	var erratum models.Erratum
	if err := r.db.GetContext(ctx, &erratum, query, id); err != nil {
		return nil, err
	}
	return &erratum, nil
}

// ListReported returns reported errata whose RFC metadata falls inside the
// given visibility scope, oldest submission first.
func (r *ErratumRepository) ListReported(ctx context.Context, scope models.VisibilityScope) ([]models.Erratum, error) {
	if scope.IsEmpty() {
		return []models.Erratum{}, nil
	}

	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	builder.WriteString(`SELECT e.id, e.rfc_number, e.status_slug, e.erratum_type_slug, e.section, e.orig_text,
       e.corrected_text, e.submitter_name, e.submitter_email, e.notes, e.formats, e.submitted_at,
       e.verifier_name, e.verifier_email, e.verified_at, e.created_at, e.updated_at
	FROM errata e
	JOIN rfc_metadata m ON m.rfc_number = e.rfc_number
	WHERE e.status_slug = 'reported'`)

	if !scope.All {
		clauses := make([]string, 0, len(scope.Areas)*2+1)
		for _, area := range scope.Areas {
			args = append(args, area)
			clauses = append(clauses, fmt.Sprintf("m.area_acronym = $%d", len(args)))
			args = append(args, area)
			clauses = append(clauses, fmt.Sprintf("m.area_assignment = $%d", len(args)))
		}
		if len(scope.Streams) > 0 {
			placeholders := make([]string, len(scope.Streams))
			for i, stream := range scope.Streams {
				args = append(args, stream)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			clauses = append(clauses, fmt.Sprintf("m.stream IN (%s)", strings.Join(placeholders, ",")))
		}
		builder.WriteString(" AND (")
		builder.WriteString(strings.Join(clauses, " OR "))
		builder.WriteString(")")
	}
	builder.WriteString(" ORDER BY e.submitted_at ASC NULLS LAST, e.id ASC")

	errata := []models.Erratum{}
	if err := r.db.SelectContext(ctx, &errata, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reported errata: %w", err)
	}
	return errata, nil
}

// Search returns errata matching the public search filter, with the legacy
// site ordering: status order, RFC number, type order, id.
func (r *ErratumRepository) Search(ctx context.Context, filter models.ErratumFilter) ([]models.Erratum, int, error) {
	conditions := make([]string, 0, 8)
	args := make([]interface{}, 0, 12)

	if filter.RFCNumber != nil {
		args = append(args, *filter.RFCNumber)
		conditions = append(conditions, fmt.Sprintf("e.rfc_number = $%d", len(args)))
	}
	if filter.ErratumID != nil {
		args = append(args, *filter.ErratumID)
		conditions = append(conditions, fmt.Sprintf("e.id = $%d", len(args)))
	}
	if filter.Status != "" && filter.Status != "any" {
		if filter.Status == "verified_reported" {
			conditions = append(conditions, "e.status_slug IN ('verified', 'reported')")
		} else {
			args = append(args, filter.Status)
			conditions = append(conditions, fmt.Sprintf("e.status_slug = $%d", len(args)))
		}
	}
	if filter.Area != "" && filter.Area != "any" {
		searchAreas := []string{filter.Area}
		if filter.Area == "art" {
			searchAreas = append(searchAreas, models.ArtLegacyAliases...)
		}
		placeholders := make([]string, len(searchAreas))
		for i, area := range searchAreas {
			args = append(args, area)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		in := strings.Join(placeholders, ",")
		conditions = append(conditions,
			fmt.Sprintf("(m.area_acronym IN (%s) OR m.area_assignment IN (%s))", in, in))
	}
	if filter.Type != "" && filter.Type != "any" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("e.erratum_type_slug = $%d", len(args)))
	}
	if filter.GroupAcronym != "" {
		args = append(args, filter.GroupAcronym)
		conditions = append(conditions, fmt.Sprintf("m.group_acronym = $%d", len(args)))
	}
	if filter.SubmitterName != "" {
		args = append(args, "%"+filter.SubmitterName+"%")
		conditions = append(conditions, fmt.Sprintf("e.submitter_name ILIKE $%d", len(args)))
	}
	if filter.Stream != "" && filter.Stream != "any" {
		args = append(args, filter.Stream)
		conditions = append(conditions, fmt.Sprintf("m.stream = $%d", len(args)))
	}
	if cond, dateArgs := datePrefixCondition(filter.DatePrefix, len(args)); cond != "" {
		args = append(args, dateArgs...)
		conditions = append(conditions, cond)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM errata e JOIN rfc_metadata m ON m.rfc_number = e.rfc_number" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count errata: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT e.id, e.rfc_number, e.status_slug, e.erratum_type_slug, e.section, e.orig_text,
       e.corrected_text, e.submitter_name, e.submitter_email, e.notes, e.formats, e.submitted_at,
       e.verifier_name, e.verifier_email, e.verified_at, e.created_at, e.updated_at
	FROM errata e
	JOIN rfc_metadata m ON m.rfc_number = e.rfc_number
	JOIN statuses s ON s.slug = e.status_slug
	LEFT JOIN erratum_types t ON t.slug = e.erratum_type_slug` +
		where +
		fmt.Sprintf(" ORDER BY s.display_order, e.rfc_number, t.display_order NULLS LAST, e.id LIMIT %d OFFSET %d", limit, offset)

	errata := []models.Erratum{}
	if err := r.db.SelectContext(ctx, &errata, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search errata: %w", err)
	}
	return errata, total, nil
}

// ListAll streams the full corpus in the legacy export order.
func (r *ErratumRepository) ListAll(ctx context.Context) ([]models.Erratum, error) {
	query := fmt.Sprintf(`SELECT %s FROM errata ORDER BY id`, erratumColumns)
	errata := []models.Erratum{}
	if err := r.db.SelectContext(ctx, &errata, query); err != nil {
		return nil, fmt.Errorf("list all errata: %w", err)
	}
	return errata, nil
}

// ClassificationParams groups the columns written by a classify transition.
type ClassificationParams struct {
	ID            int64
	Status        models.StatusSlug
	VerifierName  string
	VerifierEmail string
	VerifiedAt    time.Time
	Edits         models.ClassifyEdits
}

// Classify applies the one-way reported → terminal transition. The guard on
// status_slug makes concurrent classifications lose with sql.ErrNoRows
// instead of overwriting an earlier decision.
func (r *ErratumRepository) Classify(ctx context.Context, params ClassificationParams) error {
	setParts := []string{
		"status_slug = :status",
		"verifier_name = :verifier_name",
		"verifier_email = :verifier_email",
		"verified_at = :verified_at",
		"updated_at = :verified_at",
	}
	if params.Edits.Section != nil {
		setParts = append(setParts, "section = :section")
	}
	if params.Edits.OrigText != nil {
		setParts = append(setParts, "orig_text = :orig_text")
	}
	if params.Edits.CorrectedText != nil {
		setParts = append(setParts, "corrected_text = :corrected_text")
	}
	if params.Edits.Notes != nil {
		setParts = append(setParts, "notes = :notes")
	}
	query := fmt.Sprintf("UPDATE errata SET %s WHERE id = :id AND status_slug = '%s'",
		strings.Join(setParts, ", "),
		models.StatusReported,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ID,
		"status":         params.Status,
		"verifier_name":  params.VerifierName,
		"verifier_email": params.VerifierEmail,
		"verified_at":    params.VerifiedAt,
		"section":        derefOr(params.Edits.Section, ""),
		"orig_text":      derefOr(params.Edits.OrigText, ""),
		"corrected_text": derefOr(params.Edits.CorrectedText, ""),
		"notes":          derefOr(params.Edits.Notes, ""),
	})
	if err != nil {
		return fmt.Errorf("classify erratum: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check classify rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func datePrefixCondition(prefix string, argOffset int) (string, []interface{}) {
	if prefix == "" {
		return "", nil
	}
	parts := strings.Split(prefix, "-")
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	fields := []string{"YEAR", "MONTH", "DAY"}
	for i, part := range parts {
		if i >= len(fields) {
			break
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("EXTRACT(%s FROM e.submitted_at) = $%d", fields[i], argOffset+len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "(" + strings.Join(conditions, " AND ") + ")", args
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
