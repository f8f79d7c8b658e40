package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

func TestClassScheduleRepositoryListBySections(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewClassScheduleRepository(db)

	teacher := "teach-1"
	rows := sqlmock.NewRows([]string{"id", "term_id", "section_id", "day_of_week", "slot", "subject_id", "teacher_id", "room_id", "created_at"}).
		AddRow("ent-1", "term-1", "sec-1", "MONDAY", 0, "subj-1", teacher, nil, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM class_schedule_entries WHERE term_id").
		WithArgs("term-1", "sec-1").
		WillReturnRows(rows)

	entries, err := repo.ListBySections(context.Background(), "term-1", []string{"sec-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].TeacherID)
	assert.Equal(t, teacher, *entries[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassScheduleRepositoryListBySectionsEmpty(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewClassScheduleRepository(db)

	entries, err := repo.ListBySections(context.Background(), "term-1", nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassScheduleRepositoryDeleteBySections(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewClassScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_schedule_entries WHERE term_id = ? AND section_id IN (?, ?)")).
		WithArgs("term-1", "sec-1", "sec-2").
		WillReturnResult(sqlmock.NewResult(0, 10))

	affected, err := repo.DeleteBySections(context.Background(), nil, "term-1", []string{"sec-1", "sec-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassScheduleRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewClassScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 2))

	teacher := "teach-1"
	entries := []models.ClassScheduleEntry{
		{TermID: "term-1", SectionID: "sec-1", DayOfWeek: "MONDAY", Slot: 0, SubjectID: "subj-1", TeacherID: &teacher},
		{TermID: "term-1", SectionID: "sec-1", DayOfWeek: "MONDAY", Slot: 1, SubjectID: "subj-2", TeacherID: &teacher},
	}
	err := repo.BulkInsert(context.Background(), nil, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
