package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/models"
)

func newStagedRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func stagedFixture() *models.StagedErratum {
	submitted := time.Now().UTC()
	return &models.StagedErratum{
		ID:             "entry-1",
		EntryStatus:    models.EntrySubmitted,
		RFCNumber:      9000,
		Section:        "3.1",
		OrigText:       "teh packet",
		CorrectedText:  "the packet",
		SubmitterName:  "Jane Reporter",
		SubmitterEmail: "jane@example.com",
		Formats:        pq.StringArray{"TXT"},
		SubmittedAt:    &submitted,
		CreatedAt:      submitted,
	}
}

func TestStagedRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staged_errata")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	staged := &models.StagedErratum{
		RFCNumber:      9000,
		Section:        "3.1",
		OrigText:       "teh packet",
		CorrectedText:  "the packet",
		SubmitterName:  "Jane Reporter",
		SubmitterEmail: "jane@example.com",
		Formats:        pq.StringArray{"TXT"},
	}
	require.NoError(t, repo.Create(context.Background(), staged))
	require.NotEmpty(t, staged.ID)
	require.Equal(t, models.EntryIncomplete, staged.EntryStatus)
	require.False(t, staged.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRepositoryMarkSubmittedGuard(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE staged_errata SET entry_status = 'submitted'")).
		WithArgs("entry-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkSubmitted(context.Background(), "entry-1", now))

	// Already submitted, the guard matches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE staged_errata SET entry_status = 'submitted'")).
		WithArgs("entry-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkSubmitted(context.Background(), "entry-1", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRepositoryUpdateGuard(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	staged := stagedFixture()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE staged_errata SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), staged)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRepositoryConvertToErratum(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	staged := stagedFixture()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staged_errata WHERE id = $1 AND entry_status = 'submitted'")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO errata")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7141)))
	mock.ExpectCommit()

	erratum, err := repo.ConvertToErratum(context.Background(), staged, models.TypeTechnical)
	require.NoError(t, err)
	require.Equal(t, int64(7141), erratum.ID)
	require.Equal(t, models.StatusReported, erratum.Status)
	require.NotNil(t, erratum.Type)
	require.Equal(t, models.TypeTechnical, *erratum.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRepositoryConvertAlreadyConverted(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	staged := stagedFixture()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staged_errata WHERE id = $1 AND entry_status = 'submitted'")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.ConvertToErratum(context.Background(), staged, models.TypeEditorial)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRepositoryDeleteIncompleteBefore(t *testing.T) {
	db, mock, cleanup := newStagedRepoMock(t)
	defer cleanup()

	repo := NewStagedRepository(db)
	cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staged_errata WHERE entry_status = 'incomplete'")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.DeleteIncompleteBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), purged)
	require.NoError(t, mock.ExpectationsWereMet())
}
