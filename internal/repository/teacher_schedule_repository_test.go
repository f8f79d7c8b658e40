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

func TestTeacherScheduleRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "teacher_id", "section_id", "day_of_week", "slot", "subject_id", "room_id", "created_at"}).
		AddRow("ent-1", "term-1", "teach-1", "sec-1", "MONDAY", 0, "subj-1", nil, time.Now()).
		AddRow("ent-2", "term-1", "teach-1", "sec-2", "MONDAY", 1, "subj-1", nil, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM teacher_schedule_entries WHERE term_id").
		WithArgs("term-1", "teach-1").
		WillReturnRows(rows)

	entries, err := repo.ListByTeacher(context.Background(), "term-1", "teach-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sec-1", entries[0].SectionID)
	assert.Equal(t, "sec-2", entries[1].SectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherScheduleRepositoryDeleteBySections(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_schedule_entries WHERE term_id = ? AND section_id IN (?)")).
		WithArgs("term-1", "sec-1").
		WillReturnResult(sqlmock.NewResult(0, 6))

	affected, err := repo.DeleteBySections(context.Background(), nil, "term-1", []string{"sec-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherScheduleRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entries := []models.TeacherScheduleEntry{
		{TermID: "term-1", TeacherID: "teach-1", SectionID: "sec-1", DayOfWeek: "MONDAY", Slot: 0, SubjectID: "subj-1"},
	}
	err := repo.BulkInsert(context.Background(), nil, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherScheduleRepositoryBulkInsertEmpty(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	require.NoError(t, repo.BulkInsert(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
