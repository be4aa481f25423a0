package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryGrid(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "school_year", "class_id", "day_of_week", "period_number", "subject_id", "teacher_ids", "room", "created_at", "updated_at", "subject_name"}).
		AddRow("e1", "2025-2026", "c1", "Monday", 1, "s1", "{t1,t2}", "A101", now, now, "Toán").
		AddRow("e2", "2025-2026", "c1", "Tuesday", 3, "s2", "{}", "A101", now, now, nil)
	mock.ExpectQuery("SELECT e.id, e.school_year").
		WithArgs("2025-2026", "c1").
		WillReturnRows(rows)

	grid, err := repo.Grid(context.Background(), "2025-2026", "c1")
	require.NoError(t, err)

	cell := grid.Cell("Monday", "1")
	require.NotNil(t, cell)
	assert.Equal(t, "Toán", cell.Subject.Name)
	assert.True(t, cell.Subject.Expanded())
	require.Len(t, cell.Teachers, 2)
	assert.Equal(t, "t1", cell.Teachers[0].ID)
	assert.False(t, cell.Teachers[0].Expanded())

	bare := grid.Cell("Tuesday", "3")
	require.NotNil(t, bare)
	assert.Equal(t, "s2", bare.Subject.ID)
	assert.False(t, bare.Subject.Expanded())

	assert.Nil(t, grid.Cell("Wednesday", "1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkImport(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	classRows := sqlmock.NewRows([]string{"id", "code"}).
		AddRow("c1", "10A1")
	mock.ExpectQuery("SELECT id, code FROM classes").
		WithArgs("2025-2026").
		WillReturnRows(classRows)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs(sqlmock.AnyArg(), "2025-2026", "c1", "Monday", 1, "s1", sqlmock.AnyArg(), "Homeroom", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.TimetableImportRecord{
		{DayOfWeek: "Monday", PeriodNumber: 1, ClassCode: "10A1", SubjectID: "s1", TeacherIDs: []string{}, Room: "Homeroom"},
		// Unknown class code is skipped, not an error.
		{DayOfWeek: "Monday", PeriodNumber: 1, ClassCode: "11B9", SubjectID: "s1", TeacherIDs: []string{}, Room: "Homeroom"},
	}
	stored, err := repo.BulkImport(context.Background(), "2025-2026", records)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpsertAndDelete(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs(sqlmock.AnyArg(), "2025-2026", "c1", "Friday", 2, "s1", sqlmock.AnyArg(), "B202", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.TimetableEntry{SchoolYear: "2025-2026", ClassID: "c1", DayOfWeek: "Friday", PeriodNumber: 2, SubjectID: "s1", Room: "B202"}
	require.NoError(t, repo.UpsertEntry(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)

	mock.ExpectExec("DELETE FROM timetable_entries").
		WithArgs(entry.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.DeleteEntry(context.Background(), entry.ID))

	assert.NoError(t, mock.ExpectationsWereMet())
}
