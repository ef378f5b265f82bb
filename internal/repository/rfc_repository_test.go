package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/models"
)

func newRfcRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func rfcRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"rfc_number", "title", "draft_name", "publication_year", "publication_month",
		"author_names", "author_emails", "shepherd_email", "doc_ad_email", "area_ad_emails",
		"std_level", "group_acronym", "group_name", "group_list_email", "area_acronym",
		"area_assignment", "stream", "obsoleted_by", "updated_by",
	})
}

func TestRfcRepositoryGetByNumber(t *testing.T) {
	db, mock, cleanup := newRfcRepoMock(t)
	defer cleanup()

	repo := NewRfcRepository(db)
	rows := rfcRows().
		AddRow(9000, "QUIC: A UDP-Based Multiplexed and Secure Transport", "draft-ietf-quic-transport",
			2021, 5, "J. Iyengar, M. Thomson", "{jri@example.com,mt@example.com}", "", "ad@ietf.org",
			"{wit-ads@ietf.org}", "Proposed Standard", "quic", "QUIC", "quic@ietf.org",
			"wit", "", "ietf", "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfc_metadata WHERE rfc_number = $1")).
		WithArgs(9000).
		WillReturnRows(rows)

	meta, err := repo.GetByNumber(context.Background(), 9000)
	require.NoError(t, err)
	require.Equal(t, 9000, meta.RFCNumber)
	require.Equal(t, models.StreamIETF, meta.Stream)
	require.Equal(t, "quic", meta.GroupAcronym)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRfcRepositoryGetByNumbers(t *testing.T) {
	db, mock, cleanup := newRfcRepoMock(t)
	defer cleanup()

	repo := NewRfcRepository(db)

	// Empty input never touches the database.
	result, err := repo.GetByNumbers(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, result)

	rows := rfcRows().
		AddRow(100, "First", "", 1990, 1, "", "{}", "", "", "{}", "", "", "", "", "gen", "", "ietf", "", "").
		AddRow(200, "Second", "", 1991, 2, "", "{}", "", "", "{}", "", "", "", "", "ops", "", "iab", "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfc_metadata WHERE rfc_number IN")).
		WithArgs(100, 200).
		WillReturnRows(rows)

	result, err = repo.GetByNumbers(context.Background(), []int{100, 200})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "Second", result[200].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRfcRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRfcRepoMock(t)
	defer cleanup()

	repo := NewRfcRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rfc_metadata")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	meta := &models.RfcMetadata{
		RFCNumber:   9000,
		Title:       "QUIC: A UDP-Based Multiplexed and Secure Transport",
		Stream:      models.StreamIETF,
		AreaAcronym: "wit",
	}
	require.NoError(t, repo.Upsert(context.Background(), meta))
	require.NoError(t, mock.ExpectationsWereMet())
}
