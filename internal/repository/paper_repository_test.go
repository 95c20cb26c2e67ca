package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
)

func newPaperRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func paperRow(id string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, "Algebra Final", "", "HIGH_SCHOOL", "GRADE_12", "Mathematics", 2024, "http://files/p.pdf", 4.0, 2, "admin-1", now, now}
}

func paperRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "description", "level", "grade", "subject", "year", "file_url", "average_rating", "ratings_count", "uploaded_by", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(paperRow(id)...)
	}
	return rows
}

func TestPaperRepositoryListAppliesScopeAndFilter(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()
	repo := NewPaperRepository(db)

	expected := "SELECT " + paperColumns + " FROM papers WHERE 1=1 AND level = $1 AND grade = $2 AND (title ILIKE $3 OR description ILIKE $3) AND subject = $4 ORDER BY created_at DESC"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs("HIGH_SCHOOL", "GRADE_12", "%algebra%", "Mathematics").
		WillReturnRows(paperRows("p1"))

	scope := models.PaperScope{Level: models.LevelHighSchool, Grade: models.Grade12}
	filter := models.PaperFilter{Query: "algebra", Subject: "Mathematics"}
	papers, err := repo.List(context.Background(), scope, filter)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryListEscapesLikeWildcards(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()
	repo := NewPaperRepository(db)

	mock.ExpectQuery("SELECT .* FROM papers WHERE 1=1 AND \\(title ILIKE").
		WithArgs(`%50\% off%`).
		WillReturnRows(paperRows())

	_, err := repo.List(context.Background(), models.PaperScope{}, models.PaperFilter{Query: "50% off"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryFacets(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()
	repo := NewPaperRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT subject FROM papers WHERE 1=1 AND level = $1 ORDER BY subject ASC")).
		WithArgs("COLLEGE").
		WillReturnRows(sqlmock.NewRows([]string{"subject"}).AddRow("Biology").AddRow("Physics"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT year FROM papers WHERE 1=1 AND level = $1 ORDER BY year DESC")).
		WithArgs("COLLEGE").
		WillReturnRows(sqlmock.NewRows([]string{"year"}).AddRow(2024).AddRow(2023))

	facets, err := repo.Facets(context.Background(), models.PaperScope{Level: models.LevelCollege})
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Physics"}, facets.Subjects)
	assert.Equal(t, []int{2024, 2023}, facets.Years)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryFetchByIDsChunksAndPreservesOrder(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()
	repo := NewPaperRepository(db)

	ids := make([]string, 31)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	// 31 ids split into a chunk of 30 and a chunk of 1. The first chunk comes
	// back out of order; FetchByIDs must restore the requested order.
	firstChunk := paperRows("id-1", "id-0")
	mock.ExpectQuery("SELECT .* FROM papers WHERE id IN").WillReturnRows(firstChunk)
	mock.ExpectQuery("SELECT .* FROM papers WHERE id IN").WillReturnRows(paperRows("id-30"))

	papers, err := repo.FetchByIDs(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, papers, 3)
	assert.Equal(t, "id-0", papers[0].ID)
	assert.Equal(t, "id-1", papers[1].ID)
	assert.Equal(t, "id-30", papers[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryFetchByIDsEmpty(t *testing.T) {
	db, _, cleanup := newPaperRepoMock(t)
	defer cleanup()
	repo := NewPaperRepository(db)

	papers, err := repo.FetchByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, papers)
}
