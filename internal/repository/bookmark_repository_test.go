package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookmarkRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBookmarkRepositoryToggleAdds(t *testing.T) {
	db, mock, cleanup := newBookmarkRepoMock(t)
	defer cleanup()
	repo := NewBookmarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookmarks WHERE user_id = $1 AND paper_id = $2")).
		WithArgs("user-a", "paper-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO bookmarks").
		WithArgs("user-a", "paper-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	bookmarked, err := repo.Toggle(context.Background(), "user-a", "paper-1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryToggleRemoves(t *testing.T) {
	db, mock, cleanup := newBookmarkRepoMock(t)
	defer cleanup()
	repo := NewBookmarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookmarks WHERE user_id = $1 AND paper_id = $2")).
		WithArgs("user-a", "paper-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bookmarked, err := repo.Toggle(context.Background(), "user-a", "paper-1")
	require.NoError(t, err)
	assert.False(t, bookmarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryListIDs(t *testing.T) {
	db, mock, cleanup := newBookmarkRepoMock(t)
	defer cleanup()
	repo := NewBookmarkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT paper_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at ASC")).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"paper_id"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.ListIDs(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
