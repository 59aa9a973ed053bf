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

	"github.com/Thiritin/shifty/internal/models"
)

func newShiftRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func shiftRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "date", "start_time", "end_time", "required_people", "description", "created_at", "updated_at"}).
		AddRow("shift-1", "Morning Shift", time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), "08:00", "16:00", 2, "", now, now)
}

func TestShiftRepositoryList(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectQuery("SELECT id, name, date, start_time, end_time, required_people, description, created_at, updated_at FROM shifts ORDER BY date, start_time").
		WillReturnRows(shiftRows())

	shifts, err := repo.List(context.Background(), models.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "Morning Shift", shifts[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryListWeekFilter(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE date BETWEEN $1 AND $2")).
		WithArgs(weekStart, weekStart.AddDate(0, 0, 6)).
		WillReturnRows(shiftRows())

	shifts, err := repo.List(context.Background(), models.ShiftFilter{WeekStart: &weekStart})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryListForUser(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN assignments a ON a.shift_id = s.id")).
		WithArgs("user-1").
		WillReturnRows(shiftRows())

	shifts, err := repo.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shifts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	shift := &models.Shift{
		Name:           "Evening Shift",
		Date:           time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		StartTime:      "16:00",
		EndTime:        "00:00",
		RequiredPeople: 1,
	}
	require.NoError(t, repo.Create(context.Background(), shift))
	assert.NotEmpty(t, shift.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts WHERE id = $1")).
		WithArgs("shift-99").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "shift-99")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryTotals(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_shifts, COALESCE(SUM(required_people), 0) AS total_spots FROM shifts")).
		WillReturnRows(sqlmock.NewRows([]string{"total_shifts", "total_spots"}).AddRow(4, 7))

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, totals.TotalShifts)
	assert.Equal(t, 7, totals.TotalSpots)
	require.NoError(t, mock.ExpectationsWereMet())
}
