package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func baseSlotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "classroom_id", "day_of_week", "time_slot", "subject", "faculty_id",
		"created_at", "updated_at", "faculty_name", "classroom_name",
	})
}

func TestSlotRepositoryListByClassroom(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	rows := baseSlotRows().
		AddRow("s1", "c1", "MONDAY", "08:00-09:00", "Mathematics", "f1", time.Now(), time.Now(), "Alice Johnson", "101").
		AddRow("s2", "c1", "MONDAY", "09:00-10:00", "Physics", "f2", time.Now(), time.Now(), "Bob Smith", "101")
	mock.ExpectQuery("SELECT .+ FROM base_slots s").
		WithArgs("c1").
		WillReturnRows(rows)

	slots, err := repo.ListByClassroom(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "Alice Johnson", slots[0].FacultyName)
	assert.Equal(t, "101", slots[0].ClassroomName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery("SELECT .+ FROM base_slots s").
		WithArgs("s1").
		WillReturnRows(baseSlotRows().
			AddRow("s1", "c1", "FRIDAY", "10:00-11:00", "English", "f3", time.Now(), time.Now(), "Carol Davis", "201"))

	slot, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "FRIDAY", slot.DayOfWeek)
	assert.Equal(t, "f3", slot.FacultyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListFacultyIDsForSlot(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT faculty_id FROM base_slots WHERE day_of_week = $1 AND time_slot = $2")).
		WithArgs("MONDAY", "08:00-09:00").
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id"}).AddRow("f1").AddRow("f2"))

	ids, err := repo.ListFacultyIDsForSlot(context.Background(), "MONDAY", "08:00-09:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListFacultyIDsForTimeSlot(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT faculty_id FROM base_slots WHERE time_slot = $1")).
		WithArgs("08:00-09:00").
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id"}).AddRow("f1"))

	ids, err := repo.ListFacultyIDsForTimeSlot(context.Background(), "08:00-09:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryReplaceForClassroom(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM base_slots WHERE classroom_id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO base_slots").
		WithArgs(sqlmock.AnyArg(), "c1", "MONDAY", "08:00-09:00", "Mathematics", "f1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO base_slots").
		WithArgs(sqlmock.AnyArg(), "c1", "TUESDAY", "08:00-09:00", "Physics", "f2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slots := []models.BaseSlot{
		{DayOfWeek: "MONDAY", TimeSlot: "08:00-09:00", Subject: "Mathematics", FacultyID: "f1"},
		{DayOfWeek: "TUESDAY", TimeSlot: "08:00-09:00", Subject: "Physics", FacultyID: "f2"},
	}
	err := repo.ReplaceForClassroom(context.Background(), "c1", slots)
	require.NoError(t, err)
	assert.NotEmpty(t, slots[0].ID)
	assert.Equal(t, "c1", slots[0].ClassroomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryReplaceRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM base_slots WHERE classroom_id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO base_slots").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceForClassroom(context.Background(), "c1", []models.BaseSlot{
		{DayOfWeek: "MONDAY", TimeSlot: "08:00-09:00", Subject: "Mathematics", FacultyID: "f1"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryDeleteByClassroom(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM base_slots WHERE classroom_id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteByClassroom(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
