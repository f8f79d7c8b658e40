package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "class_name", "section_name", "student_count", "homeroom_id", "created_at", "updated_at"}).
		AddRow("sec-1", "term-1", "X", "A", 30, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM sections WHERE term_id").
		WithArgs("term-1", "sec-1").
		WillReturnRows(rows)

	sections, err := repo.ListByIDs(context.Background(), "term-1", []string{"sec-1"})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "X", sections[0].ClassName)
	assert.Equal(t, 30, sections[0].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM sections WHERE id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListSubjects(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "created_at"}).
		AddRow("subj-1", "MATH", "Mathematics", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM subjects WHERE id").
		WithArgs("subj-1").
		WillReturnRows(rows)

	subjects, err := repo.ListSubjects(context.Background(), []string{"subj-1"})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Mathematics", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListTeachersActiveOnly(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "active", "created_at"}).
		AddRow("teach-1", "Ana", true, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM teachers WHERE active = true AND id").
		WithArgs("teach-1", "teach-2").
		WillReturnRows(rows)

	teachers, err := repo.ListTeachers(context.Background(), []string{"teach-1", "teach-2"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Ana", teachers[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryEmptyIDLists(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	sections, err := repo.ListByIDs(context.Background(), "term-1", nil)
	require.NoError(t, err)
	assert.Empty(t, sections)

	subjects, err := repo.ListSubjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	teachers, err := repo.ListTeachers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, teachers)

	assert.NoError(t, mock.ExpectationsWereMet())
}
