package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newOverrideRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func overrideRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "base_slot_id", "original_faculty_id", "replacement_faculty_id",
		"date", "created_at", "replacement_name", "replacement_subject",
	})
}

func TestOverrideRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectExec("INSERT INTO overrides").
		WithArgs(sqlmock.AnyArg(), "s1", "f1", "f2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	override := &models.Override{
		BaseSlotID:           "s1",
		OriginalFacultyID:    "f1",
		ReplacementFacultyID: "f2",
		Date:                 time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), override))
	assert.NotEmpty(t, override.ID)
	assert.False(t, override.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryFindBySlotAndDate(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM overrides o").
		WithArgs("s1", date).
		WillReturnRows(overrideRows().
			AddRow("o1", "s1", "f1", "f2", date, time.Now(), "Bob Smith", "Physics"))

	override, err := repo.FindBySlotAndDate(context.Background(), "s1", date)
	require.NoError(t, err)
	assert.Equal(t, "f2", override.ReplacementFacultyID)
	assert.Equal(t, "Bob Smith", override.ReplacementName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryFindBySlotAndDateNoRows(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM overrides o").
		WithArgs("s1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySlotAndDate(context.Background(), "s1", date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListInRange(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM overrides o").
		WithArgs(start, end).
		WillReturnRows(overrideRows().
			AddRow("o1", "s1", "f1", "f2", start.AddDate(0, 0, 4), time.Now(), "Bob Smith", "Physics"))

	overrides, err := repo.ListInRange(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "s1", overrides[0].BaseSlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListForOriginalFacultyInMonth(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("to_char(o.date, 'YYYY-MM') = $2")).
		WithArgs("f1", "2025-03").
		WillReturnRows(overrideRows().
			AddRow("o1", "s1", "f1", "f2", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), time.Now(), "Bob Smith", "Physics"))

	overrides, err := repo.ListForOriginalFacultyInMonth(context.Background(), "f1", "2025-03")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "Physics", overrides[0].ReplacementSubject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM overrides WHERE id = $1")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM overrides WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create override: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}
